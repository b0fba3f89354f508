package usage

import (
	"fmt"
	"time"
)

// TimeLayout is the timestamp format the usage API expects.
const TimeLayout = "2006-01-02 15:04:05"

// TimeWindow is the query range sent to the model and tool usage endpoints.
type TimeWindow struct {
	Start string
	End   string
}

// WindowAt returns the window ending in the current hour of now and starting
// at the same hour on the previous calendar day.
func WindowAt(now time.Time) TimeWindow {
	yesterday := now.AddDate(0, 0, -1)
	hour := now.Hour()

	y, m, d := yesterday.Date()
	ty, tm, td := now.Date()

	return TimeWindow{
		Start: fmt.Sprintf("%04d-%02d-%02d %02d:00:00", y, m, d, hour),
		End:   fmt.Sprintf("%04d-%02d-%02d %02d:59:59", ty, tm, td, hour),
	}
}

// CurrentWindow returns the window for the local wall clock.
func CurrentWindow() TimeWindow {
	return WindowAt(time.Now())
}
