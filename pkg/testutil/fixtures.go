package testutil

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Fixed identifiers for deterministic testing.
var (
	TestOwnerID1 = uuid.MustParse("00000000-0000-0000-0000-000000000001").String()
	TestOwnerID2 = uuid.MustParse("00000000-0000-0000-0000-000000000002").String()
	TestLoanID   = uuid.MustParse("00000000-0000-0000-0000-000000000030").String()
)

// Date builds a civil.Date.
func Date(year int, month time.Month, day int) civil.Date {
	return civil.Date{Year: year, Month: month, Day: day}
}
