package desk

import (
	"math"
	"strings"
	"time"
)

// StayDays returns the number of nights billed for a stay: whole days rounded up, at least one.
func StayDays(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() {
		return 1
	}
	days := int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// Tally compares the amount paid against the rent owed.
func Tally(paid, rent float64) TallyStatus {
	if paid >= rent {
		return TallyStatusTallied
	}
	return TallyStatusNotTallied
}

// SameGuest compares guest names ignoring case and surrounding space.
func SameGuest(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// CloseStay turns a check-in record into its checkout record.
// An unparsable check-in time bills a single day.
func CloseStay(rec CheckinRecord, totalPaid float64, now time.Time) CheckoutRecord {
	checkIn, _ := time.Parse(time.RFC3339, rec.CheckIn)
	days := StayDays(checkIn, now)
	rent := float64(days) * rec.Rate.Float()

	return CheckoutRecord{
		CheckinRecord:      rec,
		CheckOutDate:       now.Format(DateLayout),
		CheckOutTime:       now.Format("15:04:05"),
		CheckOutDateTime:   now.UTC().Format(time.RFC3339),
		DaysStayed:         days,
		TotalRent:          Number(rent),
		TotalPaid:          Number(totalPaid),
		PaymentTallyStatus: Tally(totalPaid, rent),
	}
}

// CheckinDate returns the YYYY-MM-DD the record was checked in, preferring the explicit date field.
func (c *CheckinRecord) CheckinDate() string {
	if c.CheckInDate != "" {
		if _, err := time.Parse(DateLayout, c.CheckInDate); err == nil {
			return c.CheckInDate
		}
	}
	if len(c.CheckIn) >= len(DateLayout) {
		return c.CheckIn[:len(DateLayout)]
	}
	return ""
}
