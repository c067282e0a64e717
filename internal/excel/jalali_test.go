package excel

import (
	"testing"
	"time"
)

func TestParseJalaliDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"1400/01/01", time.Date(2021, 3, 21, 0, 0, 0, 0, time.UTC)},
		{"1402/12/15", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"1403/01/01", time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)},
		{"1399/12/30", time.Date(2021, 3, 20, 0, 0, 0, 0, time.UTC)}, // leap year 1399
		{"1402/07/01", time.Date(2023, 9, 23, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseJalaliDate(tt.in)
		if err != nil {
			t.Errorf("parseJalaliDate(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseJalaliDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
		}
	}
}

func TestParseJalaliDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "1402-12-15", "1402/13/01", "1402/00/10", "x/y/z", "1402/12"} {
		if _, err := parseJalaliDate(in); err == nil {
			t.Errorf("parseJalaliDate(%q) succeeded, want error", in)
		}
	}
}
