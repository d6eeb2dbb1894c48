package fractal

import (
	"fmt"
	"slices"
	"strings"
)

// Classic landmarks in the Mandelbrot set.
// Pass them through FitAspect before rendering on a non-square canvas.
var (
	// Seahorse Valley, curled filaments between the main cardioid and the period-2 bulb
	SeahorseValley = RegionViewport(-0.8, -0.7, 0.05, 0.15)

	// Elephant Valley, trunk-like tendrils on the right of the cardioid
	ElephantValley = RegionViewport(-1.85, -1.75, -0.10, -0.02)

	// small copy of the set with tight spiral arms
	SpiralMinibrot = RegionViewport(-0.7435, -0.7420, 0.1310, 0.1325)

	// threefold symmetric spiral
	TripleSpiral = RegionViewport(-0.7480, -0.7450, 0.0950, 0.0980)

	// deep spiral filaments
	ValleyOfTheDragon = RegionViewport(-0.7400, -0.7350, 0.1800, 0.1850)

	// self-similar copy inside a spiral arm
	MinibrotInMiniSpiral = RegionViewport(-1.7390, -1.7375, -0.0235, -0.0220)
)

// Landmarks maps the names accepted on command lines to viewports.
var Landmarks = map[string]Viewport{
	"full":          DefaultViewport,
	"seahorse":      SeahorseValley,
	"elephant":      ElephantValley,
	"spiral":        SpiralMinibrot,
	"triple-spiral": TripleSpiral,
	"dragon":        ValleyOfTheDragon,
	"mini-spiral":   MinibrotInMiniSpiral,
}

// LookupLandmark returns the named landmark viewport.
func LookupLandmark(name string) (Viewport, error) {
	v, ok := Landmarks[strings.ToLower(name)]
	if !ok {
		return Viewport{}, fmt.Errorf("unknown region %q (known: %s)", name, strings.Join(LandmarkNames(), ", "))
	}
	return v, nil
}

// LandmarkNames returns the landmark names in sorted order.
func LandmarkNames() []string {
	names := make([]string, 0, len(Landmarks))
	for n := range Landmarks {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
