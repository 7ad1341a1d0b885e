package helper

import (
	"math"
	"slices"
	"strings"
	"time"
)

// DurationToInt32 converts a duration to a number of seconds, clamped to the int32 range.
func DurationToInt32(value time.Duration) int32 {
	val := int64(value / time.Second)
	switch {
	case val < 0:
		return 0
	case val > math.MaxInt32:
		return math.MaxInt32
	default:
		return int32(val)
	}
}

// SplitList splits a separated list, trims every item and drops empty items
// and duplicates. The order of first appearance is kept.
func SplitList(list, sep string) []string {
	items := []string{}
	for item := range strings.SplitSeq(list, sep) {
		item = strings.TrimSpace(item)
		if item == "" || slices.Contains(items, item) {
			continue
		}
		items = append(items, item)
	}
	return items
}

// AppendUnique appends the values missing from list.
func AppendUnique(list []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
