package lockstore

import (
	"strconv"
	"testing"
	"time"

	"github.com/seatgrid/seatgrid/internal/model"
)

func TestClaimKey(t *testing.T) {
	if got := ClaimKey(42); got != "event:42:seats" {
		t.Errorf("ClaimKey(42) = %q, want %q", got, "event:42:seats")
	}
}

func TestFilterStale(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	threshold := 30 * time.Second

	ms := func(age time.Duration) string {
		return strconv.FormatInt(now.Add(-age).UnixMilli(), 10)
	}

	entries := map[string]string{
		"1-1": ms(45 * time.Second), // stale
		"1-2": ms(5 * time.Second),  // fresh
		"1-3": ms(31 * time.Second), // stale
		"1-4": ms(30 * time.Second), // exactly at threshold: not yet stale
	}

	got := FilterStale(entries, now, threshold)

	want := map[model.SeatRef]bool{
		{Row: "1", Col: "1"}: true,
		{Row: "1", Col: "3"}: true,
	}
	if len(got) != len(want) {
		t.Fatalf("FilterStale returned %d refs (%v), want %d", len(got), got, len(want))
	}
	for _, ref := range got {
		if !want[ref] {
			t.Errorf("FilterStale returned unexpected ref %+v", ref)
		}
	}
}

func TestFilterStale_SkipsMalformedEntries(t *testing.T) {
	now := time.Now()
	entries := map[string]string{
		"1-1":     strconv.FormatInt(now.Add(-time.Hour).UnixMilli(), 10),
		"badseat": strconv.FormatInt(now.Add(-time.Hour).UnixMilli(), 10),
		"1-2":     "not-a-timestamp",
	}

	got := FilterStale(entries, now, time.Minute)
	if len(got) != 1 || got[0] != (model.SeatRef{Row: "1", Col: "1"}) {
		t.Errorf("FilterStale = %v, want only 1-1", got)
	}
}

func TestFilterStale_EmptySnapshot(t *testing.T) {
	if got := FilterStale(map[string]string{}, time.Now(), time.Minute); len(got) != 0 {
		t.Errorf("FilterStale(empty) = %v, want empty", got)
	}
}
