// Package testutil provides deterministic test signals and numeric
// assertions for the DSP packages.
package testutil
