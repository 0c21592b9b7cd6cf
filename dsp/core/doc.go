// Package core holds small numeric helpers shared by the DSP packages.
package core
