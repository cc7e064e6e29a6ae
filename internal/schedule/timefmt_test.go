package schedule

import (
	"fmt"
	"testing"
)

func TestFormatTime(t *testing.T) {
	cases := []struct {
		hour24, minute int
		want           string
	}{
		{0, 0, "12:00AM"},
		{0, 5, "12:05AM"},
		{9, 30, "9:30AM"},
		{12, 0, "12:00PM"},
		{13, 15, "1:15PM"},
		{23, 45, "11:45PM"},
	}
	for _, c := range cases {
		if got := FormatTime(c.hour24, c.minute); got != c.want {
			t.Errorf("FormatTime(%d, %d) = %q, want %q", c.hour24, c.minute, got, c.want)
		}
	}
}

func TestParseTimeRoundTrip(t *testing.T) {
	for h := 1; h <= 12; h++ {
		for _, m := range []int{0, 15, 30, 45} {
			for _, period := range []string{"AM", "PM"} {
				s := fmt.Sprintf("%d:%02d%s", h, m, period)
				gh, gm, gp := ParseTime(s)
				if gh != h || gm != m || gp != period {
					t.Errorf("ParseTime(%q) = (%d, %d, %q)", s, gh, gm, gp)
				}
			}
		}
	}
}

func TestParseTimeMalformed(t *testing.T) {
	for _, s := range []string{"", "noon", "25:99"} {
		h, m, p := ParseTime(s)
		if h != 12 || m != 0 || p != "AM" {
			t.Errorf("ParseTime(%q) = (%d, %d, %q), want (12, 0, AM)", s, h, m, p)
		}
	}
}

func TestMinutesOrdering(t *testing.T) {
	ordered := []string{"12:00AM", "8:00AM", "9:00AM", "11:59AM", "12:00PM", "1:00PM", "11:45PM"}
	for i := 1; i < len(ordered); i++ {
		if Minutes(ordered[i-1]) >= Minutes(ordered[i]) {
			t.Errorf("Minutes(%q) = %d not before Minutes(%q) = %d",
				ordered[i-1], Minutes(ordered[i-1]), ordered[i], Minutes(ordered[i]))
		}
	}
}
