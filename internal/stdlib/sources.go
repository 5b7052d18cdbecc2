package stdlib

// Raw DSL source for each embedded module (spec.md §4.3, §6.4). These
// are ordinary TakoMusic source files: the standard library is written
// in the DSL itself, not bootstrapped from Go. internal/eval supplies a
// small set of intrinsics (clipConcat, clipRepeat, clipTranspose,
// clipReverse, curveFromPoints, curveSample, posRef, rngSeed, rngNext,
// lyricSegment) directly in the root scope — not through the
// native-function extension hook, which is reserved for host
// integrations — so these modules can stay pure DSL while still
// reaching clip, curve, random and lyric primitives that have no
// source-level constructor.

const coreSource = `
export fn length(arr) -> Number {
	return arr.length;
}

export fn map(arr, f) -> Array {
	let out = [];
	for (i in 0..(arr.length - 1)) {
		out[out.length] = f(arr[i]);
	}
	return out;
}

export fn filter(arr, pred) -> Array {
	let out = [];
	for (i in 0..(arr.length - 1)) {
		if (pred(arr[i])) {
			out[out.length] = arr[i];
		}
	}
	return out;
}

export fn reduce(arr, f, init) {
	let acc = init;
	for (i in 0..(arr.length - 1)) {
		acc = f(acc, arr[i]);
	}
	return acc;
}

export fn range(n) -> Array {
	let out = [];
	for (i in 0..(n - 1)) {
		out[out.length] = i;
	}
	return out;
}

export fn clamp(v, lo, hi) -> Number {
	if (v < lo) {
		return lo;
	}
	if (v > hi) {
		return hi;
	}
	return v;
}
`

const drumsSource = `
import clamp from "std:core";

export const KICK = "kick";
export const SNARE = "snare";
export const HI_HAT_CLOSED = "hiHatClosed";
export const HI_HAT_OPEN = "hiHatOpen";
export const CRASH = "crash";
export const RIDE = "ride";
export const TOM_HIGH = "tomHigh";
export const TOM_MID = "tomMid";
export const TOM_LOW = "tomLow";

export fn standardKit() -> Object {
	return {
		kick: 36,
		snare: 38,
		hiHatClosed: 42,
		hiHatOpen: 46,
		crash: 49,
		ride: 51,
		tomHigh: 50,
		tomMid: 47,
		tomLow: 43,
	};
}

export fn backbeat(bars) -> Array {
	let hits = [];
	for (bar in 1..bars) {
		hits[hits.length] = { at: bar, key: KICK };
		hits[hits.length] = { at: bar, key: SNARE };
	}
	return hits;
}
`

const theorySource = `
export const MAJOR = [0, 2, 4, 5, 7, 9, 11];
export const MINOR = [0, 2, 3, 5, 7, 8, 10];
export const DORIAN = [0, 2, 3, 5, 7, 9, 10];
export const MIXOLYDIAN = [0, 2, 4, 5, 7, 9, 10];

export fn scale(root, intervals) -> Array {
	let out = [];
	for (i in 0..(intervals.length - 1)) {
		out[out.length] = root + intervals[i];
	}
	return out;
}

export fn triad(root, intervals) -> Array {
	return [root + intervals[0], root + intervals[2], root + intervals[4]];
}

export fn degree(root, intervals, n) -> Number {
	const octaves = n / intervals.length;
	const idx = n - octaves * intervals.length;
	return root + octaves * 12 + intervals[idx];
}
`

const vocalSource = `
export fn lyric(text) -> Lyric {
	return lyricSegment(text);
}

export fn syllables(lyric) -> Array {
	return lyric.tokens;
}

export fn isVowelStart(token) -> Bool {
	const c = token;
	return c == "a" || c == "e" || c == "i" || c == "o" || c == "u";
}
`

const transformSource = `
export fn concat(a, b) -> Clip {
	return clipConcat(a, b);
}

export fn repeat(c, n) -> Clip {
	return clipRepeat(c, n);
}

export fn transpose(c, semitones) -> Clip {
	return clipTranspose(c, semitones);
}

export fn reverse(c) -> Clip {
	return clipReverse(c);
}

export fn sequence(clips) -> Clip {
	let out = clips[0];
	for (i in 1..(clips.length - 1)) {
		out = clipConcat(out, clips[i]);
	}
	return out;
}
`

const curvesSource = `
export fn linear(start, end) -> Curve {
	return curveFromPoints([{ t: 0, v: start }, { t: 1, v: end }]);
}

export fn constant(v) -> Curve {
	return curveFromPoints([{ t: 0, v: v }, { t: 1, v: v }]);
}

export fn sample(curve, at) -> Number {
	return curveSample(curve, at);
}
`

const timeSource = `
export fn barBeat(bar, beat) -> Pos {
	return posRef(bar, beat);
}

export fn bars(n) -> Dur {
	return n * 1;
}
`

const randomSource = `
export fn seed(n) -> Rng {
	return rngSeed(n);
}

export fn next(r) -> Number {
	return rngNext(r);
}

export fn pick(r, arr) -> Number {
	const n = rngNext(r);
	const idx = n * arr.length;
	return arr[idx];
}
`

const resultSource = `
export fn ok(v) -> Object {
	return { ok: true, value: v };
}

export fn err(message) -> Object {
	return { ok: false, message: message };
}

export fn unwrapOr(r, fallback) {
	if (r.ok) {
		return r.value;
	}
	return fallback;
}
`

const rhythmSource = `
export fn euclidean(pulses, steps) -> Array {
	let pattern = [];
	for (i in 0..(steps - 1)) {
		pattern[pattern.length] = false;
	}
	let bucket = 0;
	for (i in 0..(steps - 1)) {
		bucket = bucket + pulses;
		if (bucket >= steps) {
			bucket = bucket - steps;
			pattern[i] = true;
		}
	}
	return pattern;
}

export fn swing(amount) -> Array {
	return [1, amount];
}
`

// sources maps each embedded module name (without the "std:" prefix) to
// its DSL source text.
var sources = map[string]string{
	"core":      coreSource,
	"drums":     drumsSource,
	"theory":    theorySource,
	"vocal":     vocalSource,
	"transform": transformSource,
	"curves":    curvesSource,
	"time":      timeSource,
	"random":    randomSource,
	"result":    resultSource,
	"rhythm":    rhythmSource,
}

// Names lists every embedded module name, in the fixed order spec.md
// §6.4 names them.
func Names() []string {
	return []string{"core", "drums", "theory", "vocal", "transform", "curves", "time", "random", "result", "rhythm"}
}
