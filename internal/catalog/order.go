package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Comparator orders two test names, returning <0, 0 or >0.
type Comparator func(a, b string) int

// CaseSensitive compares names byte-wise.
func CaseSensitive(a, b string) int {
	return strings.Compare(a, b)
}

// CaseInsensitive compares Unicode case-folded names. Names that fold to the
// same string are ordered case-sensitively, so the order stays total.
func CaseInsensitive(a, b string) int {
	fold := cases.Fold()
	if c := strings.Compare(fold.String(a), fold.String(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Comparator names as written in run manifests.
const (
	OrderCaseSensitive   = "case-sensitive"
	OrderCaseInsensitive = "case-insensitive"
)

// ParseComparator resolves a manifest comparator name. Empty means
// case-sensitive.
func ParseComparator(name string) (Comparator, error) {
	switch name {
	case "", OrderCaseSensitive:
		return CaseSensitive, nil
	case OrderCaseInsensitive:
		return CaseInsensitive, nil
	default:
		return nil, fmt.Errorf("unknown comparator %q (want %s or %s)",
			name, OrderCaseSensitive, OrderCaseInsensitive)
	}
}

// insertionSort orders descriptors by name. Adjacent elements are only
// exchanged when strictly out of order, so equal names keep discovery order.
func insertionSort(descs []Descriptor, cmp Comparator) {
	for i := 1; i < len(descs); i++ {
		for j := i; j > 0 && cmp(descs[j-1].Name, descs[j].Name) > 0; j-- {
			descs[j-1], descs[j] = descs[j], descs[j-1]
		}
	}
}
