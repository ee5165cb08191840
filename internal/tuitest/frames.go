package tuitest

import (
	"regexp"
	"strings"
)

// Frame is one full redraw with and without escape sequences.
type Frame struct {
	Index int
	ANSI  string
	Plain string
}

var (
	frameSeparator = regexp.MustCompile(`\x1b\[[0-9;]*J`)
	csiPattern     = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)
	oscPattern     = regexp.MustCompile(`\x1b\][^\x07]*(\x07|\x1b\\)`)
)

func parseFrames(raw []byte) []Frame {
	cleaned := strings.ReplaceAll(string(raw), "\r", "")
	var frames []Frame
	for _, segment := range frameSeparator.Split(cleaned, -1) {
		segment = strings.TrimPrefix(strings.Trim(segment, "\x00"), "\x1b[H")
		plain := normalizeLines(stripANSI(segment))
		if strings.TrimSpace(plain) == "" {
			continue
		}
		frames = append(frames, Frame{Index: len(frames), ANSI: segment, Plain: plain})
	}
	if len(frames) == 0 && cleaned != "" {
		frames = append(frames, Frame{ANSI: cleaned, Plain: normalizeLines(stripANSI(cleaned))})
	}
	return frames
}

// FinalFrame returns the last frame, or false when nothing was drawn.
func (r *Recording) FinalFrame() (Frame, bool) {
	if r == nil || len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

// LastFrameContaining returns the most recent frame that shows text.
func (r *Recording) LastFrameContaining(text string) (Frame, bool) {
	if r == nil {
		return Frame{}, false
	}
	for i := len(r.Frames) - 1; i >= 0; i-- {
		if strings.Contains(r.Frames[i].Plain, text) {
			return r.Frames[i], true
		}
	}
	return Frame{}, false
}

func stripANSI(s string) string {
	s = oscPattern.ReplaceAllString(s, "")
	s = csiPattern.ReplaceAllString(s, "")
	return strings.NewReplacer("\x0f", "", "\x0e", "").Replace(s)
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
