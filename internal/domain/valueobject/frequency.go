package valueobject

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Frequency is the payment frequency of a loan. It fixes the number of
// periods per year and how due dates are stepped from the start date.
type Frequency struct {
	value string
}

const (
	frequencyMonthly = "MONTHLY"
	frequencyWeekly  = "WEEKLY"
	frequencyYearly  = "YEARLY"
)

var (
	FrequencyMonthly = Frequency{value: frequencyMonthly}
	FrequencyWeekly  = Frequency{value: frequencyWeekly}
	FrequencyYearly  = Frequency{value: frequencyYearly}
)

// NewFrequency creates a Frequency from a raw string.
func NewFrequency(s string) (Frequency, error) {
	switch s {
	case frequencyMonthly:
		return FrequencyMonthly, nil
	case frequencyWeekly:
		return FrequencyWeekly, nil
	case frequencyYearly:
		return FrequencyYearly, nil
	default:
		return Frequency{}, fmt.Errorf("invalid frequency: %q", s)
	}
}

func (f Frequency) String() string             { return f.value }
func (f Frequency) IsZero() bool               { return f.value == "" }
func (f Frequency) Equal(other Frequency) bool { return f.value == other.value }

// PeriodsPerYear returns 12, 52 or 1. An unknown frequency returns 0.
func (f Frequency) PeriodsPerYear() int {
	switch f.value {
	case frequencyMonthly:
		return 12
	case frequencyWeekly:
		return 52
	case frequencyYearly:
		return 1
	default:
		return 0
	}
}

// DueDate returns the date that lies n periods after start. Each date is
// computed from start directly so that month-end anchors do not drift; a day
// that does not exist in the target month is clamped to the month's last day.
func (f Frequency) DueDate(start civil.Date, n int) civil.Date {
	switch f.value {
	case frequencyWeekly:
		return start.AddDays(7 * n)
	case frequencyYearly:
		return addMonths(start, 12*n)
	default:
		return addMonths(start, n)
	}
}

func addMonths(d civil.Date, n int) civil.Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := d.Day
	if day > lastDay {
		day = lastDay
	}
	return civil.Date{Year: first.Year(), Month: first.Month(), Day: day}
}
