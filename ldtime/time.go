// Package ldtime provides the millisecond-resolution Unix timestamp type used by the data
// source, event pipeline, and diagnostics, so those components don't depend directly on
// time.Time or on real wall-clock time (tests can construct arbitrary values).
package ldtime

import "time"

// UnixMillisecondTime is milliseconds since the Unix epoch.
type UnixMillisecondTime uint64

// UnixMillisFromTime converts a time.Time to UnixMillisecondTime.
func UnixMillisFromTime(t time.Time) UnixMillisecondTime {
	return UnixMillisecondTime(t.UnixNano() / int64(time.Millisecond))
}

// UnixMillisNow returns the current time as UnixMillisecondTime.
func UnixMillisNow() UnixMillisecondTime {
	return UnixMillisFromTime(time.Now())
}

// Time converts back to a time.Time (UTC).
func (t UnixMillisecondTime) Time() time.Time {
	return time.Unix(0, int64(t)*int64(time.Millisecond)).UTC()
}
