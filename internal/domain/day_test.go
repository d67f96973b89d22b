package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain date", in: "2025-01-15", want: "2025-01-15"},
		{name: "padded", in: "  2025-01-15 ", want: "2025-01-15"},
		{name: "datetime with space", in: "2025-01-15 00:00:00", want: "2025-01-15"},
		{name: "datetime late in day", in: "2025-01-15T23:59:59", want: "2025-01-15"},
		{name: "rfc3339 keeps written date", in: "2025-01-15T23:30:00-05:00", want: "2025-01-15"},
		{name: "rfc3339 utc", in: "2025-01-15T00:10:00Z", want: "2025-01-15"},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "15/01/2025", wantErr: true},
		{name: "impossible date", in: "2025-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDay(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseDay(%q) error = %v, want validation error", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDay(%q) error = %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseDay(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestDayAt(t *testing.T) {
	loc := time.FixedZone("clinic", 3*3600+1800)
	now := time.Date(2025, 3, 9, 14, 25, 7, 999, loc)
	d := MustParseDay("2025-01-15")

	got := d.At(now)
	want := time.Date(2025, 1, 15, 14, 25, 7, 0, loc)
	if !got.Equal(want) {
		t.Errorf("At() = %v, want %v", got, want)
	}
	if DayOf(got) != d {
		t.Errorf("DayOf(At()) = %s, want %s", DayOf(got), d)
	}
}

func TestToday(t *testing.T) {
	now := time.Date(2025, 1, 15, 22, 0, 0, 0, time.UTC)
	tehran := time.FixedZone("tehran", 3*3600+1800)

	if got := Today(now, nil).String(); got != "2025-01-15" {
		t.Errorf("Today(utc) = %s", got)
	}
	if got := Today(now, tehran).String(); got != "2025-01-16" {
		t.Errorf("Today(+03:30) = %s", got)
	}
}

func TestDayAddDaysAndOrder(t *testing.T) {
	d := MustParseDay("2024-12-30")
	if got := d.AddDays(3).String(); got != "2025-01-02" {
		t.Errorf("AddDays(3) = %s", got)
	}
	if !d.Before(d.AddDays(1)) {
		t.Error("Before() should be true for the next day")
	}
	if !d.Equal(MustParseDay("2024-12-30 08:00:00")) {
		t.Error("Equal() should ignore the time component")
	}
}

func TestDayJSON(t *testing.T) {
	var v struct {
		Date Day `json:"date"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2025-01-15"}`), &v); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(out) != `{"date":"2025-01-15"}` {
		t.Errorf("Marshal = %s", out)
	}
	if err := json.Unmarshal([]byte(`{"date":"yesterday"}`), &v); !errors.Is(err, ErrValidation) {
		t.Errorf("Unmarshal(bad) error = %v, want validation error", err)
	}
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, perPage         int
		wantPage, wantPerPage int
	}{
		{0, 0, 1, DefaultPerPage},
		{-3, 50, 1, 50},
		{2, 101, 2, DefaultPerPage},
		{4, 100, 4, 100},
	}
	for _, tt := range tests {
		p, pp := NormalizePage(tt.page, tt.perPage)
		if p != tt.wantPage || pp != tt.wantPerPage {
			t.Errorf("NormalizePage(%d, %d) = %d, %d", tt.page, tt.perPage, p, pp)
		}
	}

	pg := NewPage([]int(nil), 41, 1, 20)
	if pg.TotalPages != 3 || pg.Items == nil {
		t.Errorf("NewPage() = %+v", pg)
	}
}
