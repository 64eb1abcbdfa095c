package ir

// Version constants recorded with every stored run.
const (
	// FormatVersion is the canonical value envelope version.
	FormatVersion = "1"

	// HarnessVersion is the optharness release.
	HarnessVersion = "0.1.0"
)
