package effort

import "manoonchai/internal/layout"

// Triad classifiers. Each one is an ordered rule list: the first rule whose
// predicate matches decides the class.

// Classes of each classifier, in increasing severity.
const (
	HandAltClasses   = 3
	RowAltClasses    = 8
	FingerAltClasses = 8
)

// HandAltNames describes the hand alternation classes.
var HandAltNames = [HandAltClasses]string{
	"both hands, no alternation back",
	"both hands, alternating",
	"one hand",
}

// RowAltNames describes the row alternation classes.
var RowAltNames = [RowAltClasses]string{
	"same row",
	"downward with repetition",
	"upward with repetition",
	"not monotonic, max change 1",
	"downward progression",
	"not monotonic, downward change >1",
	"upward progression",
	"not monotonic, upward change >1",
}

// FingerAltNames describes the finger alternation classes.
var FingerAltNames = [FingerAltClasses]string{
	"all different, monotonic",
	"some different, key repeat, monotonic",
	"rolling-in",
	"all different, not monotonic",
	"some different, not monotonic",
	"same finger, key repeat",
	"some different, no key repeat, monotonic",
	"same finger, no key repeat",
}

type handRule struct {
	class int
	match func(h [3]layout.Hand) bool
}

var handRules = []handRule{
	{2, func(h [3]layout.Hand) bool { return h[0] == h[1] && h[1] == h[2] }},
	{1, func(h [3]layout.Hand) bool { return h[0] == h[2] }},
	{0, func(h [3]layout.Hand) bool { return true }},
}

// rowFeatures are the physical rows of a triad. Row indices grow downward
// (number row 0, lower row 3), so a positive step moves down.
type rowFeatures struct {
	r      [3]int
	s1, s2 int
}

func newRowFeatures(k [3]layout.Key) rowFeatures {
	f := rowFeatures{r: [3]int{k[0].Row, k[1].Row, k[2].Row}}
	f.s1 = f.r[1] - f.r[0]
	f.s2 = f.r[2] - f.r[1]
	return f
}

func (f rowFeatures) repeat() bool     { return f.s1 == 0 || f.s2 == 0 }
func (f rowFeatures) down() bool       { return f.s1 >= 0 && f.s2 >= 0 }
func (f rowFeatures) up() bool         { return f.s1 <= 0 && f.s2 <= 0 }
func (f rowFeatures) maxChange() int   { return max(abs(f.s1), abs(f.s2)) }
func (f rowFeatures) maxDownward() int { return max(f.s1, f.s2) }

type rowRule struct {
	class int
	match func(f rowFeatures) bool
}

var rowRules = []rowRule{
	{0, func(f rowFeatures) bool { return f.s1 == 0 && f.s2 == 0 }},
	{1, func(f rowFeatures) bool { return f.down() && f.repeat() }},
	{2, func(f rowFeatures) bool { return f.up() && f.repeat() }},
	{4, func(f rowFeatures) bool { return f.down() }},
	{6, func(f rowFeatures) bool { return f.up() }},
	// Everything below is not monotonic.
	{3, func(f rowFeatures) bool { return f.maxChange() == 1 }},
	{5, func(f rowFeatures) bool { return f.maxDownward() > 1 }},
	{7, func(f rowFeatures) bool { return true }},
}

// fingerFeatures are the fingers of a triad and whether consecutive
// strokes hit the same physical key.
type fingerFeatures struct {
	f         [3]layout.Finger
	keyRepeat bool
}

func newFingerFeatures(k [3]layout.Key) fingerFeatures {
	return fingerFeatures{
		f:         [3]layout.Finger{k[0].Finger, k[1].Finger, k[2].Finger},
		keyRepeat: k[0].SameKey(k[1]) || k[1].SameKey(k[2]),
	}
}

func (x fingerFeatures) same() bool {
	return x.f[0] == x.f[1] && x.f[1] == x.f[2]
}

func (x fingerFeatures) distinct() bool {
	return x.f[0] != x.f[1] && x.f[1] != x.f[2] && x.f[0] != x.f[2]
}

func (x fingerFeatures) monotonic() bool {
	return (x.f[0] <= x.f[1] && x.f[1] <= x.f[2]) || (x.f[0] >= x.f[1] && x.f[1] >= x.f[2])
}

// rollingIn: the third finger lands strictly between the first two, so the
// hand rolls back toward the keys it just left.
func (x fingerFeatures) rollingIn() bool {
	lo, hi := min(x.f[0], x.f[1]), max(x.f[0], x.f[1])
	return lo < x.f[2] && x.f[2] < hi
}

type fingerRule struct {
	class int
	match func(x fingerFeatures) bool
}

var fingerRules = []fingerRule{
	{5, func(x fingerFeatures) bool { return x.same() && x.keyRepeat }},
	{7, func(x fingerFeatures) bool { return x.same() }},
	{0, func(x fingerFeatures) bool { return x.distinct() && x.monotonic() }},
	{2, func(x fingerFeatures) bool { return x.distinct() && x.rollingIn() }},
	{3, func(x fingerFeatures) bool { return x.distinct() }},
	// Exactly two fingers are equal from here on.
	{4, func(x fingerFeatures) bool { return !x.monotonic() }},
	{1, func(x fingerFeatures) bool { return x.keyRepeat }},
	{6, func(x fingerFeatures) bool { return true }},
}

func handAlt(k [3]layout.Key) int {
	h := [3]layout.Hand{k[0].Hand, k[1].Hand, k[2].Hand}
	for _, rule := range handRules {
		if rule.match(h) {
			return rule.class
		}
	}
	return HandAltClasses - 1
}

func rowAlt(k [3]layout.Key) int {
	f := newRowFeatures(k)
	for _, rule := range rowRules {
		if rule.match(f) {
			return rule.class
		}
	}
	return RowAltClasses - 1
}

func fingerAlt(k [3]layout.Key) int {
	x := newFingerFeatures(k)
	for _, rule := range fingerRules {
		if rule.match(x) {
			return rule.class
		}
	}
	return FingerAltClasses - 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
