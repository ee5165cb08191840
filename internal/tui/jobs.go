package tui

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/csheth/dailyfeed/internal/logger"
)

type jobKind string

type jobStatus string

const (
	jobKindCatalog jobKind = "catalog"
	jobKindLoad    jobKind = "load"
	jobKindStats   jobKind = "stats"
	jobKindPreview jobKind = "preview"
	jobKindEnhance jobKind = "enhance"
)

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
)

type jobSnapshot struct {
	ID          string
	Kind        jobKind
	Status      jobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
	Duration    time.Duration
}

type jobSignalMsg struct {
	Snapshot jobSnapshot
}

type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

type jobRunner func(context.Context) (tea.Msg, error)

type jobBus struct {
	counter  int64
	timeouts map[jobKind]time.Duration
}

// newJobBus returns a bus that cancels each job after the deadline of its
// kind. Kinds without a positive entry run without a deadline.
func newJobBus(timeouts map[jobKind]time.Duration) *jobBus {
	return &jobBus{timeouts: timeouts}
}

func (b *jobBus) timeoutFor(kind jobKind) time.Duration {
	return b.timeouts[kind]
}

func (b *jobBus) nextID(kind jobKind) string {
	idx := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("%s-%d", kind, idx)
}

func (b *jobBus) Start(kind jobKind, runner jobRunner) tea.Cmd {
	id := b.nextID(kind)
	started := time.Now()
	startSnapshot := jobSnapshot{ID: id, Kind: kind, Status: jobStatusRunning, StartedAt: started}
	startCmd := func() tea.Msg {
		return jobSignalMsg{Snapshot: startSnapshot}
	}

	runCmd := func() tea.Msg {
		return b.execute(id, kind, started, runner)
	}

	return tea.Sequence(startCmd, runCmd)
}

// execute runs runner under the deadline for kind and wraps the outcome.
func (b *jobBus) execute(id string, kind jobKind, started time.Time, runner jobRunner) jobResultEnvelope {
	ctx := context.Background()
	if timeout := b.timeoutFor(kind); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	payload, err := runner(ctx)
	snapshot := jobSnapshot{
		ID:          id,
		Kind:        kind,
		StartedAt:   started,
		CompletedAt: time.Now(),
	}
	if err != nil {
		snapshot.Status = jobStatusFailed
		snapshot.Err = err.Error()
	} else {
		snapshot.Status = jobStatusSucceeded
	}
	snapshot.Duration = snapshot.CompletedAt.Sub(started)
	logger.Get().Debug("job finished",
		zap.String("id", id),
		zap.String("status", string(snapshot.Status)),
		zap.Duration("duration", snapshot.Duration),
		zap.Error(err))
	return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
}

// trackJob records a snapshot; finished jobs are dropped from the running set.
func (m *model) trackJob(s jobSnapshot) {
	if m.running == nil {
		m.running = make(map[string]jobSnapshot)
	}
	if s.Status == jobStatusRunning {
		m.running[s.ID] = s
		return
	}
	delete(m.running, s.ID)
}

func (m *model) jobStatusBadges() []string {
	if len(m.running) == 0 {
		return nil
	}
	counts := make(map[jobKind]int)
	for _, s := range m.running {
		counts[s.Kind]++
	}
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	badges := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		badges = append(badges, fmt.Sprintf("%s %s×%d", m.spinner.View(), kind, counts[jobKind(kind)]))
	}
	return badges
}
