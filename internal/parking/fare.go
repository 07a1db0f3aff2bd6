package parking

import (
	"fmt"
	"time"
)

const (
	// Stays up to and including this many hours are free.
	GraceHours       = 0.5
	LoyaltyReduction = 0.95

	millisPerHour = 1000 * 60 * 60
)

// ComputeFare prices a completed stay. It has no side effects.
func ComputeFare(inTime time.Time, outTime *time.Time, category Category, discount bool) (float64, error) {
	if outTime == nil {
		return 0, fmt.Errorf("%w: exit time is missing", ErrInvalidInterval)
	}
	if outTime.Before(inTime) {
		return 0, fmt.Errorf("%w: exit %s is before entry %s", ErrInvalidInterval,
			outTime.Format(time.RFC3339), inTime.Format(time.RFC3339))
	}

	durationHours := float64(outTime.UnixMilli()-inTime.UnixMilli()) / millisPerHour
	if durationHours <= GraceHours {
		return 0, nil
	}

	rate, err := HourlyRate(category)
	if err != nil {
		return 0, err
	}

	reduction := 1.0
	if discount {
		reduction = LoyaltyReduction
	}

	return durationHours * rate * reduction, nil
}
