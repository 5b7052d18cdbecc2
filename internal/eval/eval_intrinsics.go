package eval

import (
	"github.com/tako0614/takomusic/internal/value"
)

// defineIntrinsics binds the small set of evaluator-provided primitives
// that the embedded std:transform/std:curves/std:time/std:random
// modules call by name. These are distinct from the value.NativeHandler
// extension hook (reserved for host integrations): intrinsics give the
// DSL-authored stdlib access to Clip/Curve/Pos/Rng construction that has
// no literal syntax of its own.
func (ev *Evaluator) defineIntrinsics(root *value.Scope) {
	root.Define("clipConcat", nativeFn("clipConcat", intrinsicClipConcat), false)
	root.Define("clipRepeat", nativeFn("clipRepeat", intrinsicClipRepeat), false)
	root.Define("clipTranspose", nativeFn("clipTranspose", intrinsicClipTranspose), false)
	root.Define("clipReverse", nativeFn("clipReverse", intrinsicClipReverse), false)
	root.Define("curveFromPoints", nativeFn("curveFromPoints", intrinsicCurveFromPoints), false)
	root.Define("curveSample", nativeFn("curveSample", intrinsicCurveSample), false)
	root.Define("posRef", nativeFn("posRef", intrinsicPosRef), false)
	root.Define("rngSeed", nativeFn("rngSeed", intrinsicRngSeed), false)
	root.Define("rngNext", nativeFn("rngNext", intrinsicRngNext), false)
	root.Define("lyricSegment", nativeFn("lyricSegment", intrinsicLyricSegment), false)
}

func nativeFn(name string, h value.NativeHandler) value.Function {
	return value.Function{Name: name, Native: h}
}

func argClip(args []value.Value, i int) value.Clip {
	if i < len(args) {
		if c, ok := args[i].(value.Clip); ok {
			return c
		}
	}
	return value.Clip{}
}

func intrinsicClipConcat(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	return value.Concat(argClip(args, 0), argClip(args, 1)), nil
}

func intrinsicClipRepeat(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	n := int64(0)
	if len(args) > 1 {
		n = toInt(args[1])
	}
	return value.Repeat(argClip(args, 0), n), nil
}

func intrinsicClipTranspose(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	semitones := 0
	if len(args) > 1 {
		semitones = int(toInt(args[1]))
	}
	return value.Transpose(argClip(args, 0), semitones), nil
}

func intrinsicClipReverse(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	return value.Reverse(argClip(args, 0)), nil
}

// intrinsicCurveFromPoints accepts an array of two-element [t, v] arrays
// or {t, v} objects and builds a piecewise-linear Curve.
func intrinsicCurveFromPoints(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.CurveValue{}, nil
	}
	arr, ok := args[0].(value.ArrayValue)
	if !ok {
		return value.CurveValue{}, nil
	}
	var points []value.CurvePoint
	for i := int64(0); i < arr.Len(); i++ {
		switch p := arr.Get(i).(type) {
		case value.ArrayValue:
			if p.Len() >= 2 {
				points = append(points, value.CurvePoint{T: toFloat(p.Get(0)), V: toFloat(p.Get(1))})
			}
		case value.ObjectValue:
			t, _ := p.Get("t")
			v, _ := p.Get("v")
			points = append(points, value.CurvePoint{T: toFloat(t), V: toFloat(v)})
		}
	}
	return value.CurveValue{Curve: value.Curve{Points: points}}, nil
}

// intrinsicCurveSample linearly interpolates curve.Points at time t,
// clamping to the first/last point outside the curve's domain.
func intrinsicCurveSample(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Number(0), nil
	}
	cv, ok := args[0].(value.CurveValue)
	if !ok || len(cv.Points) == 0 {
		return value.Number(0), nil
	}
	t := toFloat(args[1])
	pts := cv.Points
	if t <= pts[0].T {
		return value.Number(pts[0].V), nil
	}
	if t >= pts[len(pts)-1].T {
		return value.Number(pts[len(pts)-1].V), nil
	}
	for i := 1; i < len(pts); i++ {
		if t <= pts[i].T {
			a, b := pts[i-1], pts[i]
			span := b.T - a.T
			if span == 0 {
				return value.Number(a.V), nil
			}
			frac := (t - a.T) / span
			return value.Number(a.V + frac*(b.V-a.V)), nil
		}
	}
	return value.Number(pts[len(pts)-1].V), nil
}

func intrinsicPosRef(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	bar, beat := 0, 0
	if len(args) > 0 {
		bar = int(toInt(args[0]))
	}
	if len(args) > 1 {
		beat = int(toInt(args[1]))
	}
	return value.PosValue{Pos: value.PosFromRef(value.PosRef{Bar: bar, Beat: beat})}, nil
}

// splitmix64Next advances a 64-bit PRNG state and derives a uniform
// double in [0,1), avoiding any dependency on math/rand so that
// rng seeding is reproducible independent of process start time.
func splitmix64Next(state uint64) (next uint64, out float64) {
	state += 0x9E3779B97F4A7C15
	z := state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return state, float64(z>>11) / float64(1<<53)
}

func intrinsicRngSeed(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	seed := uint64(0)
	if len(args) > 0 {
		seed = uint64(toInt(args[0]))
	}
	return value.RngValue{Rng: &value.Rng{State: seed}}, nil
}

func intrinsicRngNext(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Number(0), nil
	}
	rv, ok := args[0].(value.RngValue)
	if !ok {
		return value.Number(0), nil
	}
	next, out := splitmix64Next(rv.Rng.State)
	rv.Rng.State = next
	return value.Number(out), nil
}

// intrinsicLyricSegment backs std:vocal's lyric() constructor, word-
// segmenting a string into a Lyric value (value.SegmentLyric).
func intrinsicLyricSegment(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Lyric{}, nil
	}
	text, ok := args[0].(value.String)
	if !ok {
		return value.Lyric{}, nil
	}
	return value.SegmentLyric(string(text)), nil
}
