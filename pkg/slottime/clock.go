package slottime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	minutes int // minutes since midnight, 0..1439
	valid   bool
}

// NewClock returns the clock for hour:minute.
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("invalid time %02d:%02d", hour, minute)
	}
	return Clock{minutes: hour*60 + minute, valid: true}, nil
}

// ParseClock accepts "HH:MM" and the "HH:MM:SS" form postgres returns for time
// columns. Every part is exactly two ASCII digits. Seconds are checked, then
// dropped.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return Clock{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	vals := make([]int, len(parts))
	for i, p := range parts {
		v, ok := twoDigits(p)
		if !ok {
			return Clock{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
		}
		vals[i] = v
	}
	if len(vals) == 3 && vals[2] > 59 {
		return Clock{}, fmt.Errorf("invalid time %q: seconds out of range", s)
	}
	return NewClock(vals[0], vals[1])
}

func twoDigits(p string) (int, bool) {
	if len(p) != 2 || p[0] < '0' || p[0] > '9' || p[1] < '0' || p[1] > '9' {
		return 0, false
	}
	return int(p[0]-'0')*10 + int(p[1]-'0'), true
}

// MustParseClock is ParseClock for constants and tests.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Hour() int   { return c.minutes / 60 }
func (c Clock) Minute() int { return c.minutes % 60 }

// Minutes is the number of minutes since midnight.
func (c Clock) Minutes() int { return c.minutes }

func (c Clock) IsZero() bool { return !c.valid }

func (c Clock) Before(o Clock) bool { return c.minutes < o.minutes }

func (c Clock) After(o Clock) bool { return c.minutes > o.minutes }

// String renders the zero-padded 24-hour form, e.g. "09:05".
func (c Clock) String() string {
	if !c.valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Display renders the 12-hour form without a leading zero: "9:05 AM".
// Both midnight and noon display as 12.
func (c Clock) Display() string {
	if !c.valid {
		return ""
	}
	h := c.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	switch {
	case h == 0:
		h = 12
	case h > 12:
		h -= 12
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute(), suffix)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	if !c.valid {
		return json.Marshal(nil)
	}
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Clock{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*c = Clock{}
		return nil
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// DisplayTime formats an HH:MM string for display, returning the input
// unchanged when it cannot be parsed.
func DisplayTime(s string) string {
	c, err := ParseClock(s)
	if err != nil {
		return s
	}
	return c.Display()
}
