package feed

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/csheth/dailyfeed/internal/logger"
)

// ParseStats counts the lines a batch could not use.
type ParseStats struct {
	Lines     int
	Malformed int
	Dropped   int
}

// stringList accepts either a JSON string or an array of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		if single = strings.TrimSpace(single); single != "" {
			*s = stringList{single}
		} else {
			*s = nil
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	out := many[:0]
	for _, item := range many {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*s = out
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type rawAI struct {
	TLDR       string `json:"tldr"`
	Motivation string `json:"motivation"`
	Method     string `json:"method"`
	Result     string `json:"result"`
	Conclusion string `json:"conclusion"`
}

type rawRecord struct {
	ID         flexString `json:"id"`
	Title      string     `json:"title"`
	Categories stringList `json:"categories"`
	Authors    stringList `json:"authors"`
	Summary    string     `json:"summary"`
	Abs        string     `json:"abs"`
	PDF        string     `json:"pdf"`
	AI         *rawAI     `json:"AI"`
}

// ParseBatch reads one record per line. Malformed lines are logged and
// skipped; records without categories or outside allowed are dropped. The
// error is only set when r itself fails.
func ParseBatch(r io.Reader, date string, allowed []string) (Index, ParseStats, error) {
	allow := make(map[string]bool, len(allowed))
	for _, category := range allowed {
		allow[category] = true
	}

	idx := make(Index)
	var stats ParseStats
	reader := bufio.NewReader(r)
	lineNo := 0
	for {
		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			parseLine(line, lineNo, date, allow, idx, &stats)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return idx, stats, fmt.Errorf("read batch %s: %w", date, readErr)
		}
	}
	if stats.Malformed > 0 || stats.Dropped > 0 {
		logger.Get().Info("batch parsed with skips",
			zap.String("date", date),
			zap.Int("lines", stats.Lines),
			zap.Int("malformed", stats.Malformed),
			zap.Int("dropped", stats.Dropped),
		)
	}
	return idx, stats, nil
}

func parseLine(line []byte, lineNo int, date string, allow map[string]bool, idx Index, stats *ParseStats) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	stats.Lines++

	var rec rawRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		stats.Malformed++
		logger.Get().Warn("malformed record",
			zap.String("date", date),
			zap.Int("line", lineNo),
			zap.Error(err),
		)
		return
	}
	if len(rec.Categories) == 0 || !allow[rec.Categories[0]] {
		stats.Dropped++
		return
	}

	paper := rec.toPaper(date)
	primary := paper.PrimaryCategory()
	idx[primary] = append(idx[primary], paper)
}

func (rec rawRecord) toPaper(date string) Paper {
	paper := Paper{
		ID:         strings.TrimSpace(string(rec.ID)),
		Title:      strings.TrimSpace(rec.Title),
		Authors:    []string(rec.Authors),
		Categories: []string(rec.Categories),
		Summary:    strings.TrimSpace(rec.Summary),
		Details:    strings.TrimSpace(rec.Summary),
		Date:       date,
	}
	if rec.AI != nil {
		paper.AI = AIFields{
			TLDR:       strings.TrimSpace(rec.AI.TLDR),
			Motivation: strings.TrimSpace(rec.AI.Motivation),
			Method:     strings.TrimSpace(rec.AI.Method),
			Result:     strings.TrimSpace(rec.AI.Result),
			Conclusion: strings.TrimSpace(rec.AI.Conclusion),
		}
		if paper.AI.TLDR != "" {
			paper.Summary = paper.AI.TLDR
		}
	}
	paper.URL = canonicalURL(rec)
	return paper
}

func canonicalURL(rec rawRecord) string {
	switch {
	case strings.TrimSpace(rec.Abs) != "":
		return strings.TrimSpace(rec.Abs)
	case strings.TrimSpace(rec.PDF) != "":
		return strings.TrimSpace(rec.PDF)
	case strings.TrimSpace(string(rec.ID)) != "":
		return "https://arxiv.org/abs/" + strings.TrimSpace(string(rec.ID))
	default:
		return ""
	}
}
