package slottime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "zero padded", in: "2024-01-08", want: "2024-01-08"},
		{name: "leap day", in: "2024-02-29", want: "2024-02-29"},
		{name: "not padded", in: "2024-1-8", wantErr: true},
		{name: "invalid day", in: "2023-02-29", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDateArithmetic(t *testing.T) {
	d := MustParseDate("2024-12-29")

	assert.Equal(t, "2025-01-04", d.AddDays(6).String())
	assert.Equal(t, "2024-12-22", d.AddDays(-7).String())
	assert.Equal(t, time.Sunday, d.Weekday())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.Equal(MustParseDate("2024-12-29")))
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-07", "2024-01-07"}, // Sunday stays
		{"2024-01-08", "2024-01-07"},
		{"2024-01-13", "2024-01-07"},
		{"2024-03-01", "2024-02-25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekStart(MustParseDate(tt.in)).String(), tt.in)
	}
}

func TestWeekDates(t *testing.T) {
	dates := WeekDates(MustParseDate("2024-01-07"))

	assert.Equal(t, "2024-01-07", dates[0].String())
	assert.Equal(t, "2024-01-13", dates[6].String())
	assert.Equal(t, time.Sunday, dates[0].Weekday())
	assert.Equal(t, time.Saturday, dates[6].Weekday())
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "hh:mm", in: "09:00", want: "09:00"},
		{name: "with seconds", in: "14:30:00", want: "14:30"},
		{name: "midnight", in: "00:00", want: "00:00"},
		{name: "unpadded", in: "9:00", wantErr: true},
		{name: "hour out of range", in: "24:00", wantErr: true},
		{name: "minute out of range", in: "10:60", wantErr: true},
		{name: "garbage", in: "noon", wantErr: true},
		{name: "signed hour", in: "+9:00", wantErr: true},
		{name: "signed minute", in: "09:+5", wantErr: true},
		{name: "non-digit seconds", in: "09:00:xx", wantErr: true},
		{name: "seconds out of range", in: "09:00:99", wantErr: true},
		{name: "max seconds", in: "09:00:59", want: "09:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseClock(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestClockDisplay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"00:00", "12:00 AM"},
		{"00:30", "12:30 AM"},
		{"09:05", "9:05 AM"},
		{"11:59", "11:59 AM"},
		{"12:00", "12:00 PM"},
		{"13:15", "1:15 PM"},
		{"23:45", "11:45 PM"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MustParseClock(tt.in).Display(), tt.in)
	}

	assert.Equal(t, "bogus", DisplayTime("bogus"))
}

func TestClockOrdering(t *testing.T) {
	a := MustParseClock("09:00")
	b := MustParseClock("10:00")

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
	assert.True(t, b.After(a))
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Date  Date  `json:"date"`
		Start Clock `json:"start"`
		End   Clock `json:"end"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-01-08","start":"14:00","end":null}`), &p))
	assert.Equal(t, "2024-01-08", p.Date.String())
	assert.Equal(t, "14:00", p.Start.String())
	assert.True(t, p.End.IsZero())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-08","start":"14:00","end":null}`, string(out))
}
