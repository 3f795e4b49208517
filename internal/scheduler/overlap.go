package scheduler

import (
	"fmt"

	"availability-service/internal/models"
)

// IsAdmissible reports whether the candidate interval can coexist with
// the owner's existing plans. Intervals are half-open: a plan ending
// exactly when another starts is not a conflict. excludeID skips the
// plan an update is replacing so it never conflicts with itself.
func IsAdmissible(candidate models.Interval, existing []models.Plan, excludeID string) (bool, error) {
	candStart := candidate.StartAbs()
	candEnd := candidate.EndAbs()

	for _, p := range existing {
		if excludeID != "" && p.ID == excludeID {
			continue
		}
		iv, err := p.Interval()
		if err != nil {
			return false, fmt.Errorf("stored plan %s: %w", p.ID, err)
		}
		if overlaps(candStart, candEnd, iv.StartAbs(), iv.EndAbs()) {
			return false, nil
		}
	}
	return true, nil
}

func overlaps(aStart, aEnd, bStart, bEnd int64) bool {
	return aStart < bEnd && aEnd > bStart
}
