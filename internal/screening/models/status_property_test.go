//go:build property

package models

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func toStatuses(idx []int) []Status {
	out := make([]Status, len(idx))
	for i, n := range idx {
		out[i] = AllStatuses[n]
	}
	return out
}

// Property: Worst is the maximum severity and ignores ordering.
func TestWorstProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("worst is at least as severe as every input", prop.ForAll(
		func(idx []int) bool {
			statuses := toStatuses(idx)
			worst := Worst(statuses...)
			for _, s := range statuses {
				if s.Severity() > worst.Severity() {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.Property("worst is one of the inputs or clear when empty", prop.ForAll(
		func(idx []int) bool {
			statuses := toStatuses(idx)
			worst := Worst(statuses...)
			if len(statuses) == 0 {
				return worst == StatusClear
			}
			for _, s := range statuses {
				if s == worst {
					return true
				}
			}
			return false
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.Property("reversing the input does not change the result", prop.ForAll(
		func(idx []int) bool {
			statuses := toStatuses(idx)
			reversed := make([]Status, len(statuses))
			for i, s := range statuses {
				reversed[len(statuses)-1-i] = s
			}
			return Worst(statuses...) == Worst(reversed...)
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.TestingRun(t)
}
