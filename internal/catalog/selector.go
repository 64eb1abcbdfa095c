package catalog

import (
	"fmt"
	"strings"
)

// Selector decides which registered tests a run invokes.
type Selector interface {
	Eligible(name string) bool
	String() string
}

// All selects every registered test.
type All struct{}

func (All) Eligible(string) bool { return true }
func (All) String() string       { return "all" }

// ExcludeEntryPoint selects every test except the entry point, matched
// case-insensitively.
type ExcludeEntryPoint struct {
	Name string
}

func (s ExcludeEntryPoint) Eligible(name string) bool {
	return !strings.EqualFold(name, s.Name)
}

func (s ExcludeEntryPoint) String() string {
	return "exclude:" + s.Name
}

// Prefix selects tests whose name begins with a prefix (case-sensitive).
type Prefix string

func (p Prefix) Eligible(name string) bool {
	return strings.HasPrefix(name, string(p))
}

func (p Prefix) String() string {
	return "prefix:" + string(p)
}

// ParseSelector builds a selector from its manifest form: exactly one of
// exclude or prefix may be set; neither selects everything.
func ParseSelector(exclude, prefix string) (Selector, error) {
	switch {
	case exclude != "" && prefix != "":
		return nil, fmt.Errorf("selector: exclude and prefix are mutually exclusive")
	case exclude != "":
		return ExcludeEntryPoint{Name: exclude}, nil
	case prefix != "":
		return Prefix(prefix), nil
	default:
		return All{}, nil
	}
}
