// Package corpus holds the text that layouts are scored against.
//
// Text is NFC-normalised on load so that a vowel typed as a precomposed
// code point and the same vowel typed as a sequence score identically.
// Scoring works on segments: maximal runs of characters the layout can
// type. Anything else (spaces, newlines, Latin letters) breaks a run and
// is counted, so no triad ever spans an untypeable character.
package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"manoonchai/internal/layout"
)

// Errors returned by the loaders.
var (
	ErrNoInput     = errors.New("corpus: no input files")
	ErrInvalidUTF8 = errors.New("corpus: file is not valid UTF-8")
)

// Triad is three consecutive characters.
type Triad [3]rune

func (t Triad) String() string { return string(t[:]) }

// Corpus is an immutable body of normalised text.
type Corpus struct {
	sources []string
	text    string
}

// FromString creates a corpus from in-memory text.
func FromString(s string) *Corpus {
	return &Corpus{sources: []string{"<string>"}, text: norm.NFC.String(s)}
}

// Load reads and concatenates text files. Files are joined with a newline
// so that the last word of one file never forms a triad with the first
// word of the next.
func Load(paths ...string) (*Corpus, error) {
	if len(paths) == 0 {
		return nil, ErrNoInput
	}

	var buf []byte
	sources := make([]string, 0, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read corpus: %w", err)
		}
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidUTF8, filepath.Base(p))
		}
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, data...)
		sources = append(sources, p)
	}
	return &Corpus{sources: sources, text: string(norm.NFC.Bytes(buf))}, nil
}

// Sources lists the files the corpus was read from.
func (c *Corpus) Sources() []string {
	return append([]string(nil), c.sources...)
}

// Text returns the normalised text.
func (c *Corpus) Text() string { return c.text }

// Runes returns the number of characters in the corpus.
func (c *Corpus) Runes() int { return utf8.RuneCountInString(c.text) }

// Hash identifies the corpus content.
func (c *Corpus) Hash() string {
	sum := sha256.Sum256([]byte(c.text))
	return hex.EncodeToString(sum[:])
}

// Stats describes how much of a corpus a layout can type.
type Stats struct {
	Runes    int `json:"runes"`
	Mapped   int `json:"mapped"`
	Unmapped int `json:"unmapped"`
	Segments int `json:"segments"`

	// UnmappedChars counts each character the layout lacks. Whitespace is
	// included; callers filter it if they only care about real gaps.
	UnmappedChars map[rune]int `json:"-"`
}

// Coverage is the share of characters the layout can type.
func (s Stats) Coverage() float64 {
	if s.Runes == 0 {
		return 0
	}
	return float64(s.Mapped) / float64(s.Runes)
}

// Missing returns the unmapped characters, most frequent first.
func (s Stats) Missing() []rune {
	out := make([]rune, 0, len(s.UnmappedChars))
	for r := range s.UnmappedChars {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := s.UnmappedChars[out[i]], s.UnmappedChars[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	return out
}

// Segments splits the corpus into maximal runs of characters on l.
func (c *Corpus) Segments(l *layout.Layout) ([]string, Stats) {
	st := Stats{UnmappedChars: make(map[rune]int)}
	var segs []string
	start := -1
	for i, r := range c.text {
		st.Runes++
		if l.Contains(r) {
			st.Mapped++
			if start < 0 {
				start = i
			}
			continue
		}
		st.Unmapped++
		st.UnmappedChars[r]++
		if start >= 0 {
			segs = append(segs, c.text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		segs = append(segs, c.text[start:])
	}
	st.Segments = len(segs)
	return segs, st
}

// TriadCounts counts every triad inside the segments of l.
//
// The character set of a layout is unchanged by swapping keys, so the
// counts stay valid for every layout an optimizer derives from l.
func (c *Corpus) TriadCounts(l *layout.Layout) (map[Triad]int, Stats) {
	segs, st := c.Segments(l)
	counts := make(map[Triad]int)
	for _, seg := range segs {
		rs := []rune(seg)
		for i := 0; i+2 < len(rs); i++ {
			counts[Triad{rs[i], rs[i+1], rs[i+2]}]++
		}
	}
	return counts, st
}

// Weighted is a triad with its frequency.
type Weighted struct {
	Triad Triad
	Count int
}

// SortedTriads flattens counts into a slice ordered by descending count,
// then by triad. The order is stable so that scores summed over it are
// reproducible.
func SortedTriads(counts map[Triad]int) []Weighted {
	out := make([]Weighted, 0, len(counts))
	for t, n := range counts {
		out = append(out, Weighted{Triad: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		a, b := out[i].Triad, out[j].Triad
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return out
}
