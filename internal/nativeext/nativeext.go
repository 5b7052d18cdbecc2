// Package nativeext demonstrates the host-integration extension hook
// spec.md §4.5 describes for native function values: "a function value
// can carry a native handler invoked with the same argument convention
// ... used by host integrations outside the core." This is distinct
// from internal/eval's intrinsics, which are core primitives bound into
// every module's root scope; a nativeext handler instead gets attached
// to a single binding a host chooses to expose, the way
// legacy/tonelib.go calls out to an external tone-matching routine
// without that routine living inside the chart parser itself.
package nativeext

import (
	"github.com/montanaflynn/stats"

	"github.com/tako0614/takomusic/internal/value"
)

// LinearFit returns a native function value named `nativeFit` that fits a
// straight line through an array of `{t, v}` curve points via ordinary
// least squares, returning a two-point Curve spanning the input's time
// range. Intended to be attached to a host-chosen scope binding, e.g.
// `root.Define("nativeFit", nativeext.LinearFit(), false)`.
func LinearFit() value.Function {
	return value.Function{
		Name: "nativeFit",
		Native: func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) == 0 {
				return value.CurveValue{}, nil
			}
			arr, ok := args[0].(value.ArrayValue)
			if !ok || arr.Len() == 0 {
				return value.CurveValue{}, nil
			}
			series := make(stats.Series, 0, arr.Len())
			for i := int64(0); i < arr.Len(); i++ {
				obj, ok := arr.Get(i).(value.ObjectValue)
				if !ok {
					continue
				}
				t, _ := obj.Get("t")
				v, _ := obj.Get("v")
				series = append(series, stats.Coordinate{X: numOf(t), Y: numOf(v)})
			}
			if len(series) < 2 {
				return value.CurveValue{}, nil
			}
			fit, err := stats.LinearRegression(series)
			if err != nil {
				return nil, err
			}
			first, last := fit[0], fit[len(fit)-1]
			return value.CurveValue{Curve: value.Curve{
				Points: []value.CurvePoint{{T: first.X, V: first.Y}, {T: last.X, V: last.Y}},
			}}, nil
		},
	}
}

func numOf(v value.Value) float64 {
	switch n := v.(type) {
	case value.Number:
		return float64(n)
	case value.RatValue:
		return n.Rat.Float64()
	default:
		return 0
	}
}
