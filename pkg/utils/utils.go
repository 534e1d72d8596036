package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

var penceInPound = decimal.NewFromInt(100)

// StartOfDay truncates t to midnight UTC of the same calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalculationDates returns count dates starting at start, each spacingDays apart.
// E.g. a 28 day cycle with 4 calculation periods gives start, start+7, start+14, start+21.
func CalculationDates(start time.Time, count int, spacingDays int) []time.Time {
	if count <= 0 {
		return nil
	}
	start = StartOfDay(start)
	dates := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		dates = append(dates, start.AddDate(0, 0, i*spacingDays))
	}
	return dates
}

// CycleEndDate returns the last day of a cycle of durationDays starting at start.
func CycleEndDate(start time.Time, durationDays int) time.Time {
	return StartOfDay(start).AddDate(0, 0, durationDays-1)
}

// IsWithinRange reports whether date falls within [from, to], inclusive on both ends.
func IsWithinRange(date, from, to time.Time) bool {
	date = StartOfDay(date)
	return !date.Before(StartOfDay(from)) && !date.After(StartOfDay(to))
}

// PenceFromPounds converts an amount in pounds to whole pence, rounding half away from zero.
func PenceFromPounds(pounds decimal.Decimal) int64 {
	return pounds.Mul(penceInPound).Round(0).IntPart()
}

// PoundsFromPence converts pence to a two decimal place pound amount.
func PoundsFromPence(pence int64) decimal.Decimal {
	return decimal.NewFromInt(pence).Div(penceInPound).Round(2)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// Clock returns the current time. Components take one so tests can pin "today".
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// MinusYears subtracts whole years from a day, clamping 29 February to 28 February
// instead of rolling into March.
func MinusYears(t time.Time, years int) time.Time {
	t = StartOfDay(t)
	y, m, d := t.Date()
	result := time.Date(y-years, m, d, 0, 0, 0, 0, time.UTC)
	if result.Month() != m {
		result = time.Date(y-years, m+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return result
}
