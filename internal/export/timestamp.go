package export

import (
	"fmt"
	"math"
	"time"
)

const (
	isoLayout      = "2006-01-02T15:04:05.000Z"
	filenameLayout = "2006-01-02T15-04-05"
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
)

// Timestamp describes the moment of an export in the forms the document
// and the delivery layer need.
type Timestamp struct {
	// ISO is UTC with millisecond precision.
	ISO string `json:"iso"`
	// Filename is local time, safe for file names.
	Filename  string `json:"filename"`
	LocalDate string `json:"localDate"`
	LocalTime string `json:"localTime"`
}

// NewTimestamp formats now. A nil loc means time.Local.
func NewTimestamp(now time.Time, loc *time.Location) Timestamp {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	return Timestamp{
		ISO:       FormatISO(now),
		Filename:  local.Format(filenameLayout),
		LocalDate: local.Format(dateLayout),
		LocalTime: local.Format(timeLayout),
	}
}

// FormatISO formats t in UTC with milliseconds.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// maxMillis is the largest epoch millisecond count time.Unix can take as
// nanoseconds without overflowing int64.
const maxMillis = float64(math.MaxInt64 / int64(time.Millisecond))

// FromMillis converts browser epoch milliseconds, which may carry a
// fraction, into a time. It reports false for NaN, infinities and values
// outside the range of time.Duration.
func FromMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || ms > maxMillis || ms < -maxMillis {
		return time.Time{}, false
	}
	return time.Unix(0, int64(ms*float64(time.Millisecond))), true
}

// Relative describes how long before now then was: "just now" under a
// minute (and for times in the future), then minutes, hours and days. Each
// unit is rounded from the previous one, so 59.5 minutes reads as an hour.
func Relative(then, now time.Time) string {
	diff := now.Sub(then)
	if diff < time.Minute {
		return "just now"
	}

	minutes := math.Round(diff.Seconds() / 60)
	if minutes < 60 {
		return ago(minutes, "minute")
	}
	hours := math.Round(minutes / 60)
	if hours < 24 {
		return ago(hours, "hour")
	}
	return ago(math.Round(hours/24), "day")
}

func ago(n float64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", int64(n), unit)
}
