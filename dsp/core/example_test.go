package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-stretch/dsp/core"
)

func ExampleDBToLinear() {
	fmt.Printf("%.3f %.1f\n", core.DBToLinear(-6), core.LinearToDB(10))
	// Output: 0.501 20.0
}

func ExampleClampBlock() {
	buf := []float64{-1.5, 0.25, 2}
	core.ClampBlock(buf, -1, 1)
	fmt.Println(buf)
	// Output: [-1 0.25 1]
}
