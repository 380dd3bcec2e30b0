package report

// Band is a qualitative reading of a KPI. The narrative layer speaks in
// bands, never in raw numbers, so a hallucinated digit cannot leak into
// the prose.
type Band string

const (
	BandHealthy  Band = "healthy"
	BandWatch    Band = "watch"
	BandCritical Band = "critical"
)

// KPI alert thresholds. These are also where the deterministic orders and
// causal hypotheses fire.
const (
	DSOAlert     = 45.0
	DPOAlert     = 40.0
	CCCAlert     = 20.0
	ARtoAPAlert  = 1.30
	DSOCritical  = 60.0
	CCCCritical  = 45.0
	DPOCriticalL = 30.0
)

// DSOBand grades days sales outstanding. Watch above the alert threshold,
// critical above 60 days.
func DSOBand(v float64) Band {
	switch {
	case v > DSOCritical:
		return BandCritical
	case v > DSOAlert:
		return BandWatch
	default:
		return BandHealthy
	}
}

// DPOBand grades days payable outstanding. Unlike DSO, lower is worse: paying
// suppliers too fast drains cash before collections arrive.
func DPOBand(v float64) Band {
	switch {
	case v < DPOCriticalL:
		return BandCritical
	case v < DPOAlert:
		return BandWatch
	default:
		return BandHealthy
	}
}

// CCCBand grades the cash conversion cycle.
func CCCBand(v float64) Band {
	switch {
	case v > CCCCritical:
		return BandCritical
	case v > CCCAlert:
		return BandWatch
	default:
		return BandHealthy
	}
}

// KPIBands maps every present KPI to its band label for the narrative prompt.
func KPIBands(kpis map[string]*float64) map[string]string {
	out := map[string]string{}
	if v := kpis["dso"]; v != nil {
		out["dso"] = string(DSOBand(*v))
	}
	if v := kpis["dpo"]; v != nil {
		out["dpo"] = string(DPOBand(*v))
	}
	if v := kpis["ccc"]; v != nil {
		out["ccc"] = string(CCCBand(*v))
	}
	return out
}
