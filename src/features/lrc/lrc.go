// Package lrc parses LRC-format synced lyrics into ordered lines and
// computes the time span a range of lines covers.
package lrc

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// timestampPattern matches an LRC timestamp tag: [MM:SS] or [MM:SS.xx]/[MM:SS.xxx].
var timestampPattern = regexp.MustCompile(`\[(\d{2}):(\d{2})(?:\.(\d{2,3}))?\]`)

// lastLineBuffer is added to the final line's timestamp to estimate where
// the audio for that line actually ends.
const lastLineBuffer = 3.0

// LyricLine is a single line of lyrics with its timestamp.
type LyricLine struct {
	LineNumber int // 1-indexed
	Timestamp  float64
	Text       string
}

// ParsedLRC holds every line recovered from a raw LRC string.
type ParsedLRC struct {
	Lines   []LyricLine
	RawText string
}

// Parse splits raw LRC text into ordered, numbered lyric lines.
//
// The first timestamp tag on a line assigns that line's time; the text
// after the last tag on the line is kept as the line's text. Lines with no
// timestamp tag, empty text, or text starting with "[" are dropped. Once
// every line is collected it is sorted by timestamp and renumbered from 1.
func Parse(syncedLyrics string) ParsedLRC {
	var lines []LyricLine

	for _, rawLine := range strings.Split(syncedLyrics, "\n") {
		rawLine = strings.TrimSpace(rawLine)
		if rawLine == "" {
			continue
		}

		matches := timestampPattern.FindAllStringSubmatchIndex(rawLine, -1)
		if len(matches) == 0 {
			continue
		}

		last := matches[len(matches)-1]
		text := strings.TrimSpace(rawLine[last[1]:])
		if text == "" || strings.HasPrefix(text, "[") {
			continue
		}

		first := matches[0]
		ts := parseTimestamp(rawLine, first)

		lines = append(lines, LyricLine{Timestamp: ts, Text: text})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Timestamp < lines[j].Timestamp
	})
	for i := range lines {
		lines[i].LineNumber = i + 1
	}

	return ParsedLRC{Lines: lines, RawText: syncedLyrics}
}

func parseTimestamp(line string, matchIdx []int) float64 {
	minutes, _ := strconv.Atoi(line[matchIdx[2]:matchIdx[3]])
	seconds, _ := strconv.Atoi(line[matchIdx[4]:matchIdx[5]])

	var cs float64
	if matchIdx[6] != -1 {
		frac := line[matchIdx[6]:matchIdx[7]]
		n, _ := strconv.Atoi(frac)
		if len(frac) == 2 {
			cs = float64(n) / 100
		} else {
			cs = float64(n) / 1000
		}
	}

	return float64(minutes)*60 + float64(seconds) + cs
}

// TotalLines returns how many lyric lines were recovered.
func (p ParsedLRC) TotalLines() int {
	return len(p.Lines)
}

// Duration estimates the song's length from the last line's timestamp.
func (p ParsedLRC) Duration() float64 {
	if len(p.Lines) == 0 {
		return 0
	}
	return p.Lines[len(p.Lines)-1].Timestamp + lastLineBuffer
}

// PlainLyrics joins every line's text with newlines, stripping timestamps.
func (p ParsedLRC) PlainLyrics() string {
	texts := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

func (p ParsedLRC) getLine(lineNumber int) (LyricLine, bool) {
	for _, l := range p.Lines {
		if l.LineNumber == lineNumber {
			return l, true
		}
	}
	return LyricLine{}, false
}

// SegmentTimespan returns the (start, end) timestamp in seconds covering
// lines [startLine, endLine] inclusive. end is the timestamp of the line
// right after endLine, or endLine's own timestamp plus a trailing buffer if
// endLine is the last line. ok is false when either bound falls outside
// [1, TotalLines()].
func (p ParsedLRC) SegmentTimespan(startLine, endLine int) (start, end float64, ok bool) {
	total := p.TotalLines()
	if startLine < 1 || startLine > total || endLine < 1 || endLine > total {
		return 0, 0, false
	}

	startEntry, found := p.getLine(startLine)
	if !found {
		return 0, 0, false
	}
	start = startEntry.Timestamp

	if next, found := p.getLine(endLine + 1); found {
		end = next.Timestamp
		return start, end, true
	}

	endEntry, found := p.getLine(endLine)
	if !found {
		return 0, 0, false
	}
	end = endEntry.Timestamp + lastLineBuffer
	return start, end, true
}

// LyricsText joins the text of every line in [startLine, endLine].
func (p ParsedLRC) LyricsText(startLine, endLine int) string {
	var texts []string
	for _, l := range p.Lines {
		if l.LineNumber >= startLine && l.LineNumber <= endLine {
			texts = append(texts, l.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ValidateSegmentLines checks that a segment's line bounds are inside the
// parsed lyric range.
func ValidateSegmentLines(parsed ParsedLRC, startLine, endLine int) (bool, string) {
	if startLine < 1 {
		return false, "start_line must be >= 1"
	}
	if endLine < startLine {
		return false, "end_line must be >= start_line"
	}
	if startLine > parsed.TotalLines() {
		return false, "start_line exceeds total lines"
	}
	if endLine > parsed.TotalLines() {
		return false, "end_line exceeds total lines"
	}
	return true, ""
}
