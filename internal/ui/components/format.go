package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatCount renders an exact count with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatCompact renders large counts with an SI suffix, e.g. 12.3k.
func FormatCompact(n int64) string {
	if n < 1000 && n > -1000 {
		return humanize.Comma(n)
	}
	return strings.ReplaceAll(humanize.SIWithDigits(float64(n), 1, ""), " ", "")
}

// FormatBytes renders a byte count, e.g. 1.2 kB.
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatAgo renders t relative to now, e.g. "3 minutes ago".
func FormatAgo(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatCountdown renders a remaining duration as "2h 05m" or "3d 04h".
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	d = d.Round(time.Minute)
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	if days > 0 {
		return fmt.Sprintf("%dd %02dh", days, hours)
	}
	return fmt.Sprintf("%dh %02dm", hours, minutes)
}

// FormatResetTime renders a reset instant as "today at 15:04" or
// "Jan 2 15:04".
func FormatResetTime(reset, now time.Time) string {
	reset = reset.In(now.Location())
	y1, m1, d1 := reset.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "today at " + reset.Format("15:04")
	}
	return reset.Format("Jan 2 15:04")
}
