package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"finsight/pkg/models"
)

// Overdue bucket keys, by days past due.
const (
	BucketOverdue1To30  = "1-30"
	BucketOverdue31To60 = "31-60"
	BucketOverdue61To90 = "61-90"
	BucketOverdue90Plus = "90+"
)

// Current bucket keys, by days until due. A record due today lands in "0-7".
const (
	BucketCurrent0To7   = "0-7"
	BucketCurrent8To15  = "8-15"
	BucketCurrent16To30 = "16-30"
	BucketCurrent31Plus = "31+"
)

// OverdueBucketOrder and CurrentBucketOrder fix presentation order.
var (
	OverdueBucketOrder = []string{BucketOverdue1To30, BucketOverdue31To60, BucketOverdue61To90, BucketOverdue90Plus}
	CurrentBucketOrder = []string{BucketCurrent0To7, BucketCurrent8To15, BucketCurrent16To30, BucketCurrent31Plus}
)

// AgingSnapshot is the two-sided aging view at a reference date. The bucket
// partition is exact: TotalOverdue + TotalCurrent + NoDueDate equals
// TotalOutstanding.
type AgingSnapshot struct {
	Direction        models.Direction           `json:"direction"`
	AsOf             time.Time                  `json:"as_of"`
	Overdue          map[string]decimal.Decimal `json:"overdue"`
	Current          map[string]decimal.Decimal `json:"current"`
	NoDueDate        decimal.Decimal            `json:"no_due_date"`
	TotalOverdue     decimal.Decimal            `json:"total_overdue"`
	TotalCurrent     decimal.Decimal            `json:"total_current"`
	TotalOutstanding decimal.Decimal            `json:"total_outstanding"`
	OpenCount        int                        `json:"open_count"`
}

// LegacyOverdue is the old single-sided view: the four overdue buckets plus a
// "current" bucket holding everything not yet due. It is derived from the
// snapshot, never computed separately.
func (s *AgingSnapshot) LegacyOverdue() map[string]float64 {
	out := map[string]float64{
		"current":           s.TotalCurrent.Add(s.NoDueDate).InexactFloat64(),
		BucketOverdue1To30:  s.Overdue[BucketOverdue1To30].InexactFloat64(),
		BucketOverdue31To60: s.Overdue[BucketOverdue31To60].InexactFloat64(),
		BucketOverdue61To90: s.Overdue[BucketOverdue61To90].InexactFloat64(),
		BucketOverdue90Plus: s.Overdue[BucketOverdue90Plus].InexactFloat64(),
	}
	return out
}

func overdueBucket(daysOver int) string {
	switch {
	case daysOver <= 30:
		return BucketOverdue1To30
	case daysOver <= 60:
		return BucketOverdue31To60
	case daysOver <= 90:
		return BucketOverdue61To90
	default:
		return BucketOverdue90Plus
	}
}

func currentBucket(daysUntil int) string {
	switch {
	case daysUntil <= 7:
		return BucketCurrent0To7
	case daysUntil <= 15:
		return BucketCurrent8To15
	case daysUntil <= 30:
		return BucketCurrent16To30
	default:
		return BucketCurrent31Plus
	}
}
