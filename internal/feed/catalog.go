package feed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/dailyfeed/internal/logger"
)

// DateLayout is the canonical date form used by the manifest and data files.
const DateLayout = "2006-01-02"

// Catalog lists the dates that have a data file for one language.
type Catalog struct {
	src      Source
	manifest string
	pattern  *regexp.Regexp
}

// NewCatalog reads manifestPath from src and matches files for language.
func NewCatalog(src Source, manifestPath, language string) *Catalog {
	return &Catalog{
		src:      src,
		manifest: manifestPath,
		pattern:  filePattern(language),
	}
}

func filePattern(language string) *regexp.Regexp {
	return regexp.MustCompile(`(\d{4}-\d{2}-\d{2})_AI_enhanced_` + regexp.QuoteMeta(language) + `\.jsonl`)
}

// DataFile names the batch for date in language.
func DataFile(date, language string) string {
	return date + "_AI_enhanced_" + language + ".jsonl"
}

// Discover returns the available dates, most recent first. On a fetch
// failure it returns an empty slice together with the error; callers treat
// the empty slice as "no data".
func (c *Catalog) Discover(ctx context.Context) ([]string, error) {
	rc, err := c.src.Open(ctx, c.manifest)
	if err != nil {
		logger.Get().Warn("manifest unavailable",
			zap.String("operation", "catalog.discover"),
			zap.String("manifest", c.manifest),
			zap.Error(err),
		)
		return []string{}, fmt.Errorf("read manifest: %w", err)
	}
	defer rc.Close()

	dates, err := c.extract(rc)
	if err != nil {
		logger.Get().Warn("manifest unreadable", zap.String("manifest", c.manifest), zap.Error(err))
		return []string{}, fmt.Errorf("read manifest: %w", err)
	}
	logger.Get().Info("catalog discovered", zap.Int("dates", len(dates)))
	return dates, nil
}

func (c *Catalog) extract(r io.Reader) ([]string, error) {
	seen := make(map[string]time.Time)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		for _, match := range c.pattern.FindAllStringSubmatch(scanner.Text(), -1) {
			day, err := time.Parse(DateLayout, match[1])
			if err != nil {
				continue
			}
			seen[match[1]] = day
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool {
		return seen[dates[i]].After(seen[dates[j]])
	})
	return dates, nil
}

// DatesInRange returns the catalog dates within [start, end], keeping
// catalog order. Reversed bounds are swapped.
func DatesInRange(catalog []string, start, end string) ([]string, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("start date %q: %w", start, err)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("end date %q: %w", end, err)
	}
	if to.Before(from) {
		from, to = to, from
	}
	var out []string
	for _, date := range catalog {
		day, err := time.Parse(DateLayout, date)
		if err != nil {
			continue
		}
		if !day.Before(from) && !day.After(to) {
			out = append(out, date)
		}
	}
	return out, nil
}
