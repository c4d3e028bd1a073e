package util

import (
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeISODate(t *testing.T) {
	got, ok := ParseTime("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2024 || got.Month() != time.October || got.Day() != 10 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestBusinessDaysRangeExcludesWeekends(t *testing.T) {
	// 2024-01-01 is a Monday.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	days := BusinessDaysRange(start, end)
	if len(days) != 10 {
		t.Fatalf("expected 10 weekdays, got %d", len(days))
	}
	for _, d := range days {
		if IsWeekend(d) {
			t.Fatalf("weekend day %v in range", d)
		}
	}
}

func TestBusinessDaysInYear(t *testing.T) {
	// Count weekdays directly and compare.
	for _, year := range []int{2023, 2024} {
		want := 0
		start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		for d := start; d.Year() == year; d = d.AddDate(0, 0, 1) {
			if !IsWeekend(d) {
				want++
			}
		}
		if got := BusinessDaysInYear(year); got != want {
			t.Fatalf("year %d: got %d want %d", year, got, want)
		}
	}
}

func TestSplitDateRangesSingle(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	ranges := SplitDateRanges(start, end, 9)
	if len(ranges) != 1 {
		t.Fatalf("expected single range, got %d", len(ranges))
	}
	if !ranges[0][0].Equal(start) || !ranges[0][1].Equal(end) {
		t.Fatalf("unexpected bounds %v", ranges[0])
	}
}

func TestSplitDateRangesChunks(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ranges := SplitDateRanges(start, end, 9)
	if len(ranges) < 2 {
		t.Fatalf("expected multiple ranges")
	}
	if !ranges[0][0].Equal(start) {
		t.Fatalf("first range must start at start")
	}
	if !ranges[len(ranges)-1][1].Equal(end) {
		t.Fatalf("last range must end at end")
	}
	for i := 1; i < len(ranges); i++ {
		gap := ranges[i][0].Sub(ranges[i-1][1])
		if gap != time.Millisecond {
			t.Fatalf("range %d: gap %v, want 1ms", i, gap)
		}
	}
}

func TestLogicalDayRollsOverAtOffset(t *testing.T) {
	before := time.Date(2024, 5, 10, 6, 59, 0, 0, time.UTC)
	after := time.Date(2024, 5, 10, 7, 1, 0, 0, time.UTC)
	if got := LogicalDay(before, 7); got != "2024-05-09" {
		t.Fatalf("before offset: got %s", got)
	}
	if got := LogicalDay(after, 7); got != "2024-05-10" {
		t.Fatalf("after offset: got %s", got)
	}
}
