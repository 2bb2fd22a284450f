package settlement

import "time"

// DefaultCutoverHour is the local hour at which a new business day starts
const DefaultCutoverHour = 6

// BusinessDateOf returns the business day ts belongs to, as midnight UTC of
// that calendar date. A business day runs from cutoverHour local time to
// cutoverHour the next day, so timestamps before the cutover belong to the
// previous day. The timestamp is read in its own location; callers convert it
// to the shop's location first.
func BusinessDateOf(ts time.Time, cutoverHour int) time.Time {
	shifted := ts.Add(-time.Duration(cutoverHour) * time.Hour)
	y, m, d := shifted.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BusinessDateIn is BusinessDateOf after converting ts to loc
func BusinessDateIn(ts time.Time, loc *time.Location, cutoverHour int) time.Time {
	if loc != nil {
		ts = ts.In(loc)
	}
	return BusinessDateOf(ts, cutoverHour)
}

// PosDate formats a business date the way POS report methods expect it
func PosDate(date time.Time) string {
	return date.Format("20060102")
}
