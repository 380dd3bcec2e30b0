package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ConsolidationAgent merges the receivable and payable results into one
// cross-ledger KPI pack: DSO, DPO, CCC and balance ratios. It always runs
// last among the module agents and never queries the store itself.
type ConsolidationAgent struct {
	log zerolog.Logger
}

func NewConsolidationAgent(log zerolog.Logger) *ConsolidationAgent {
	return &ConsolidationAgent{log: log}
}

func (a *ConsolidationAgent) Name() string { return "consolidation" }

// Balances is the cross-ledger position derived from both sides.
type Balances struct {
	ReceivableOpen float64  `json:"receivable_open"`
	PayableOpen    float64  `json:"payable_open"`
	ARtoAP         *float64 `json:"ar_to_ap,omitempty"`
	NetPosition    float64  `json:"net_position"`
}

// Consolidate combines the two side results. Either side may be nil or
// errored; whatever is available still consolidates. DIO is carried when a
// future inventory module supplies it; without it CCC uses the simplified
// DSO - DPO form.
func (a *ConsolidationAgent) Consolidate(ctx context.Context, rx, px *Result, periodLabel string) Result {
	res := Result{Agent: a.Name(), Action: ActionMetrics}

	var dso, dpo, dio *float64
	var arOpen, apOpen float64
	var arCount, apCount int

	if rx != nil && !rx.Failed() {
		dso = rx.DSO
		if rx.Data != nil {
			arOpen = rx.Data.OpenTotal
			arCount = rx.Data.OpenCount
		}
	}
	if px != nil && !px.Failed() {
		dpo = px.DPO
		if px.Data != nil {
			apOpen = px.Data.OpenTotal
			apCount = px.Data.OpenCount
		}
	}

	var ccc *float64
	if dso != nil && dpo != nil {
		v := *dso - *dpo
		if dio != nil {
			v = *dso + *dio - *dpo
		}
		ccc = &v
	}

	balances := Balances{
		ReceivableOpen: arOpen,
		PayableOpen:    apOpen,
		NetPosition:    arOpen - apOpen,
	}
	if apOpen > 0 {
		ratio := arOpen / apOpen
		balances.ARtoAP = &ratio
	}

	res.Data = &Payload{
		Period: periodLabel,
		KPI: map[string]*float64{
			"dso": dso,
			"dpo": dpo,
			"ccc": ccc,
		},
		OpenTotal: balances.NetPosition,
		OpenCount: arCount + apCount,
	}
	res.Detail = balances
	res.DSO = dso
	res.DPO = dpo
	res.CCC = ccc

	var parts []string
	if dso != nil {
		parts = append(parts, fmt.Sprintf("DSO=%.1fd", *dso))
	}
	if dpo != nil {
		parts = append(parts, fmt.Sprintf("DPO=%.1fd", *dpo))
	}
	if ccc != nil {
		parts = append(parts, fmt.Sprintf("CCC=%.1fd", *ccc))
	}
	if len(parts) == 0 {
		res.Summary = "consolidation: no KPIs available from the side modules"
	} else {
		res.Summary = "consolidated KPIs: " + strings.Join(parts, " ")
	}
	return res
}

// Handle satisfies ModuleAgent but the router calls Consolidate directly with
// the side results in hand.
func (a *ConsolidationAgent) Handle(ctx context.Context, req Request) Result {
	return Result{Agent: a.Name(), Err: "consolidation requires side results, use Consolidate"}
}
