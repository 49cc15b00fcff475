package health

import (
	"cmp"
	"slices"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

// RankKey is the sort key for presenting sensors worst first.
type RankKey struct {
	Status   models.Status
	Ratio    float64
	SensorID string
}

// Compare orders by severity, then ascending ratio, then sensor id.
func (k RankKey) Compare(o RankKey) int {
	if c := cmp.Compare(k.Status.Rank(), o.Status.Rank()); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Ratio, o.Ratio); c != 0 {
		return c
	}
	return cmp.Compare(k.SensorID, o.SensorID)
}

// RangeKey ranks a range result by its uptime ratio
func RangeKey(r models.RangeHealth) RankKey {
	return RankKey{Status: r.Status, Ratio: r.UptimeRatio, SensorID: r.SensorID}
}

// DailyKey ranks a single-date result by its completeness ratio
func DailyKey(d models.DailyHealth) RankKey {
	return RankKey{Status: d.Status, Ratio: d.CompletenessRatio, SensorID: d.SensorID}
}

// RankRanges returns a sorted copy of results, most severe first.
func RankRanges(results []models.RangeHealth) []models.RangeHealth {
	return rankBy(results, RangeKey)
}

// RankDays returns a sorted copy of results, most severe first.
func RankDays(results []models.DailyHealth) []models.DailyHealth {
	return rankBy(results, DailyKey)
}

func rankBy[T any](items []T, key func(T) RankKey) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return key(a).Compare(key(b))
	})
	return out
}
