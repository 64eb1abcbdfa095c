package catalog

import (
	"slices"
	"testing"

	"pgregory.net/rapid"
)

func drawNames(t *rapid.T) []string {
	gen := rapid.StringMatching(`test[A-Za-z]{0,3}[0-9]?`)
	return rapid.SliceOfNDistinct(gen, 0, 12, rapid.ID[string]).Draw(t, "names")
}

func TestDiscover_DeterministicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		testNames := drawNames(t)
		cmp := rapid.SampledFrom([]Comparator{CaseSensitive, CaseInsensitive}).Draw(t, "comparator")

		reg := NewRegistry("Main")
		for _, n := range testNames {
			reg.MustRegister(Descriptor{Name: n}, constant(nil))
		}

		first := names(reg.Discover(DiscoverOptions{Comparator: cmp}))
		second := names(reg.Discover(DiscoverOptions{Comparator: cmp}))
		if !slices.Equal(first, second) {
			t.Fatalf("discovery not deterministic: %v vs %v", first, second)
		}

		for i := 1; i < len(first); i++ {
			if cmp(first[i-1], first[i]) > 0 {
				t.Fatalf("out of order at %d: %q > %q", i, first[i-1], first[i])
			}
		}
	})
}

func TestDiscover_RegistrationOrderIrrelevantProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		testNames := drawNames(t)
		shuffled := rapid.Permutation(testNames).Draw(t, "shuffled")

		a, b := NewRegistry("Main"), NewRegistry("Main")
		for _, n := range testNames {
			a.MustRegister(Descriptor{Name: n}, constant(nil))
		}
		for _, n := range shuffled {
			b.MustRegister(Descriptor{Name: n}, constant(nil))
		}

		opts := DiscoverOptions{Comparator: CaseInsensitive}
		if got, want := names(b.Discover(opts)), names(a.Discover(opts)); !slices.Equal(got, want) {
			t.Fatalf("order depends on registration: %v vs %v", got, want)
		}
	})
}

func TestDiscover_EntryPointNeverSelectedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		testNames := drawNames(t)
		entry := rapid.SampledFrom([]string{"main", "Main", "MAIN"}).Draw(t, "entry")

		reg := NewRegistry("Main")
		reg.MustRegister(Descriptor{Name: entry}, constant(nil))
		for _, n := range testNames {
			reg.MustRegister(Descriptor{Name: n}, constant(nil))
		}

		for _, d := range reg.Discover(DiscoverOptions{Selector: ExcludeEntryPoint{Name: "main"}}) {
			if d.Name == entry {
				t.Fatalf("entry point %q was selected", entry)
			}
		}
	})
}
