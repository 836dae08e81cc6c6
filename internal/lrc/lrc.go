// Package lrc parses time-tagged lyric text into an immutable timeline and
// answers "which cue is active at time t" lookups.
package lrc

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Line is one timestamped lyric cue.
type Line struct {
	Time float64 // seconds from track start
	Text string
}

// Timeline is an ordered sequence of cues, ascending by Time with original
// order preserved for equal timestamps. Build one with Parse; it is not
// mutated afterwards.
type Timeline struct {
	lines []Line
}

// tagPattern matches [MM:SS.xx] and [MM:SS:xxx] tags. A 2-digit fraction is
// centiseconds, a 3-digit fraction is milliseconds.
var tagPattern = regexp.MustCompile(`^\[(\d{2}):(\d{2})[.:](\d{2,3})\](.*)$`)

// Parse converts raw lyric text into a Timeline. Lines without a valid
// timestamp tag, or with nothing but whitespace after the tag, are dropped
// silently; malformed input degrades to fewer cues rather than an error.
func Parse(raw string) *Timeline {
	rows := strings.Split(raw, "\n")
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		m := tagPattern.FindStringSubmatch(strings.TrimRight(row, "\r"))
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[4])
		if text == "" {
			continue
		}
		minutes, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.Atoi(m[2])
		frac, _ := strconv.Atoi(m[3])
		divisor := 100.0
		if len(m[3]) == 3 {
			divisor = 1000.0
		}
		lines = append(lines, Line{
			Time: float64(minutes)*60 + float64(seconds) + float64(frac)/divisor,
			Text: text,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Time < lines[j].Time })
	return &Timeline{lines: lines}
}

// Len returns the number of cues.
func (t *Timeline) Len() int { return len(t.lines) }

// Line returns the cue at index i.
func (t *Timeline) Line(i int) Line { return t.lines[i] }

// Lines returns the ordered cues. Callers must not modify the slice.
func (t *Timeline) Lines() []Line { return t.lines }

// ActiveIndex returns the index of the last cue whose time is <= at. Before
// the first cue it returns 0; for an empty timeline it returns -1.
func (t *Timeline) ActiveIndex(at float64) int {
	if len(t.lines) == 0 {
		return -1
	}
	// First cue strictly after at; the active cue is the one before it.
	idx := sort.Search(len(t.lines), func(i int) bool { return t.lines[i].Time > at })
	if idx == 0 {
		return 0
	}
	return idx - 1
}
