package permission

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func segments() gopter.Gen {
	return gen.SliceOfN(3, gen.Identifier()).SuchThat(func(v []string) bool {
		return len(v) > 0
	})
}

// TestMatchesProperties checks the matcher against arbitrary colon paths.
func TestMatchesProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a lone wildcard matches everything", prop.ForAll(
		func(s string) bool {
			return Matches(Wildcard, s)
		},
		gen.AnyString(),
	))

	properties.Property("a pattern without wildcards matches itself", prop.ForAll(
		func(segs []string) bool {
			p := strings.Join(segs, Separator)
			return Matches(p, p)
		},
		segments(),
	))

	properties.Property("a trailing wildcard matches every longer path with the same prefix", prop.ForAll(
		func(segs []string, suffix string) bool {
			prefix := segs[0]
			return Matches(prefix+Separator+Wildcard, strings.Join(append([]string{prefix}, segs[1:]...), Separator)+Separator+suffix)
		},
		segments(),
		gen.Identifier(),
	))

	properties.Property("matching is deterministic", prop.ForAll(
		func(a, b string) bool {
			return Matches(a, b) == Matches(a, b)
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
