package tuitest

import (
	"bytes"
	"testing"
)

func TestParseFramesSplitsOnClear(t *testing.T) {
	raw := []byte("\x1b[2J\x1b[H\x1b[1mfirst\x1b[0m  \r\n\x1b[2Jsecond\r\nline  \n\n")
	frames := parseFrames(raw)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d: %+v", len(frames), frames)
	}
	if frames[0].Plain != "first" {
		t.Fatalf("unexpected first frame %q", frames[0].Plain)
	}
	if frames[1].Plain != "second\nline" || frames[1].Index != 1 {
		t.Fatalf("unexpected second frame %+v", frames[1])
	}

	rec := &Recording{Raw: raw, Frames: frames}
	if !rec.Contains("first") || rec.Contains("third") {
		t.Fatal("Contains should search the stripped stream")
	}
	if f, ok := rec.LastFrameContaining("first"); !ok || f.Index != 0 {
		t.Fatalf("expected frame 0, got %+v", f)
	}
	if final, ok := rec.FinalFrame(); !ok || final.Index != 1 {
		t.Fatalf("unexpected final frame %+v", final)
	}
}

func TestStripANSIRemovesOSC(t *testing.T) {
	got := stripANSI("\x1b]11;rgb:0000/0000/0000\x07hi\x1b[31m!\x1b[0m")
	if got != "hi!" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestTerminalResponderAnswersQueries(t *testing.T) {
	var out bytes.Buffer
	tr := newTerminalResponder(&out)
	tr.Process([]byte("abc\x1b[6"))
	tr.Process([]byte("n\x1b]11;?\x07"))
	want := "\x1b[1;1R\x1b]11;rgb:0000/0000/0000\x07"
	if out.String() != want {
		t.Fatalf("responses = %q, want %q", out.String(), want)
	}
}
