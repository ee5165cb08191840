package feed

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteBatch writes papers one record per line in the form ParseBatch reads.
func WriteBatch(w io.Writer, papers []Paper) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, paper := range papers {
		if err := enc.Encode(newRawRecord(paper)); err != nil {
			return fmt.Errorf("write record %s: %w", paper.ID, err)
		}
	}
	return nil
}

func newRawRecord(p Paper) rawRecord {
	abstract := p.Details
	if abstract == "" {
		abstract = p.Summary
	}
	rec := rawRecord{
		ID:         flexString(p.ID),
		Title:      p.Title,
		Categories: stringList(p.Categories),
		Authors:    stringList(p.Authors),
		Summary:    abstract,
		Abs:        p.URL,
	}
	if strings.Contains(p.URL, "/abs/") {
		rec.PDF = strings.Replace(p.URL, "/abs/", "/pdf/", 1)
	}
	if !p.AI.Empty() {
		rec.AI = &rawAI{
			TLDR:       p.AI.TLDR,
			Motivation: p.AI.Motivation,
			Method:     p.AI.Method,
			Result:     p.AI.Result,
			Conclusion: p.AI.Conclusion,
		}
	}
	return rec
}

// WriteBatchFile replaces path with papers. The file is written beside path
// and renamed into place so readers never see a partial batch.
func WriteBatchFile(path string, papers []Paper) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	buf := bufio.NewWriter(tmp)
	if err := WriteBatch(buf, papers); err != nil {
		tmp.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// AddToManifest appends name to the manifest at path unless a line already
// holds it. It reports whether the manifest changed.
func AddToManifest(path, name string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("read manifest: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == name {
			return false, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("open manifest: %w", err)
	}
	prefix := ""
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		prefix = "\n"
	}
	if _, err := f.WriteString(prefix + name + "\n"); err != nil {
		f.Close()
		return false, fmt.Errorf("append manifest: %w", err)
	}
	return true, f.Close()
}
