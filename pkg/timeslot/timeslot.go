// Package timeslot works with clock times as minute offsets from midnight.
// The legacy schema stores times as zero-padded HH:mm strings; converting to
// integers keeps interval comparisons free of string-format fragility.
// Cross-midnight intervals are not supported.
package timeslot

import (
	"fmt"
	"sort"
)

// Interval is a half-open [Start, End) range in minutes from midnight.
type Interval struct {
	Start int
	End   int
}

// ParseMinutes converts an HH:mm string to minutes from midnight.
func ParseMinutes(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatMinutes renders minutes from midnight as zero-padded HH:mm.
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlap reports whether two half-open intervals intersect. Abutting
// intervals (10:00-11:00 and 11:00-12:00) do not overlap.
func Overlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// Merge coalesces overlapping or touching intervals into a sorted minimal set.
// The input slice is not modified.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start > last.End {
			merged = append(merged, iv)
			continue
		}
		if iv.End > last.End {
			last.End = iv.End
		}
	}
	return merged
}

// FreeSlots returns the HH:mm start times of every slot of slotLen minutes
// that fits inside window without touching a busy interval, in ascending
// order. Busy intervals need not be sorted or disjoint.
func FreeSlots(window Interval, slotLen int, busy []Interval) []string {
	if slotLen <= 0 {
		return nil
	}

	slots := []string{}
	cursor := window.Start

	for _, iv := range Merge(busy) {
		for cursor+slotLen <= iv.Start {
			slots = append(slots, FormatMinutes(cursor))
			cursor += slotLen
		}
		if iv.End > cursor {
			cursor = iv.End
		}
	}

	for cursor+slotLen <= window.End {
		slots = append(slots, FormatMinutes(cursor))
		cursor += slotLen
	}

	return slots
}
