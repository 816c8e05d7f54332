package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/logging"
	"shipment-dashboard/internal/platform/metrics"
	"shipment-dashboard/internal/platform/obs"
	"shipment-dashboard/internal/ports"
)

// Artifact is a delivered consolidation export.
type Artifact struct {
	Name  string
	Path  string
	Bytes int64
}

type ConsolidationOptions struct {
	ExportDir       string
	AbortSuperseded bool
	Now             func() time.Time
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
}

// ConsolidationGrouper fetches consolidation groups, tracks which group is
// expanded, and exports CSV scoped to the applied filter.
type ConsolidationGrouper struct {
	source    ports.ConsolidationSource
	exportDir string
	now       func() time.Time
	logger    *zap.Logger
	metrics   *metrics.Metrics

	seq *Sequencer[domain.ConsolidationFilter, []domain.ConsolidationGroup]

	mu       sync.RWMutex
	groups   []domain.ConsolidationGroup
	applied  domain.ConsolidationFilter
	loaded   bool
	expanded int
}

func NewConsolidationGrouper(ctx context.Context, source ports.ConsolidationSource, opts ConsolidationOptions) *ConsolidationGrouper {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "exports"
	}
	g := &ConsolidationGrouper{
		source:    source,
		exportDir: opts.ExportDir,
		now:       opts.Now,
		logger:    logging.OrNop(opts.Logger),
		metrics:   opts.Metrics,
		expanded:  -1,
	}
	g.seq = NewSequencer(ctx, "consolidation", SequencerHooks[domain.ConsolidationFilter, []domain.ConsolidationGroup]{
		Fetch: source.Consolidation,
		Begin: func(f domain.ConsolidationFilter) {
			g.mu.Lock()
			g.groups = nil
			g.applied = f
			g.loaded = false
			g.expanded = -1
			g.mu.Unlock()
		},
		Commit: func(f domain.ConsolidationFilter, groups []domain.ConsolidationGroup) error {
			g.mu.Lock()
			g.groups = domain.NormalizeGroups(groups)
			g.loaded = true
			g.mu.Unlock()
			return nil
		},
	}, SequencerOptions{AbortSuperseded: opts.AbortSuperseded, Logger: opts.Logger, Metrics: opts.Metrics})
	return g
}

// FetchGroups requests groups for f and waits for the result. A call
// overtaken by a newer one returns ErrSuperseded.
func (g *ConsolidationGrouper) FetchGroups(ctx context.Context, f domain.ConsolidationFilter) (groups []domain.ConsolidationGroup, err error) {
	defer obs.Time(ctx, "consolidation.fetch_groups")(&err)

	if err := f.Validate(); err != nil {
		return nil, err
	}

	outcome, err := g.seq.Submit(f).Wait(ctx)
	switch {
	case err != nil:
		return nil, fmt.Errorf("fetch groups: %w", err)
	case outcome != OutcomeCommitted:
		return nil, fmt.Errorf("fetch groups: %w", ErrSuperseded)
	}
	return g.Groups(), nil
}

// Groups returns the groups of the latest committed query.
func (g *ConsolidationGrouper) Groups() []domain.ConsolidationGroup {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]domain.ConsolidationGroup, len(g.groups))
	for i, grp := range g.groups {
		grp.Shipments = append([]domain.ShipmentRef{}, grp.Shipments...)
		out[i] = grp
	}
	return out
}

// Applied is the filter of the latest requested fetch. It moves as soon as a
// fetch starts, so an export never covers a filter the user has left, even
// when that fetch is still loading or failed.
func (g *ConsolidationGrouper) Applied() domain.ConsolidationFilter {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.applied
}

func (g *ConsolidationGrouper) State() (QueryState, error) {
	return g.seq.State()
}

// ToggleDetail expands group i, collapsing any other. Toggling the expanded
// group collapses it. It returns the expanded index, -1 for none.
func (g *ConsolidationGrouper) ToggleDetail(i int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if i < 0 || i >= len(g.groups) {
		return g.expanded, &domain.ValidationError{
			Field:  "group",
			Value:  strconv.Itoa(i),
			Reason: fmt.Sprintf("must be within [0, %d)", len(g.groups)),
		}
	}
	if g.expanded == i {
		g.expanded = -1
	} else {
		g.expanded = i
	}
	return g.expanded, nil
}

func (g *ConsolidationGrouper) Expanded() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.expanded
}

// Export requests the CSV for f. The scope list mirrors f exactly: one
// scope when destination or date is set, none otherwise. The caller owns
// the returned body.
func (g *ConsolidationGrouper) Export(ctx context.Context, f domain.ConsolidationFilter) (name string, body io.ReadCloser, err error) {
	if err := f.Validate(); err != nil {
		return "", nil, err
	}

	req := domain.NewExportRequest(f)
	body, err = g.source.ExportConsolidation(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("export consolidation: %w", err)
	}
	return domain.ExportFileName(g.now()), body, nil
}

// ExportCSV writes the export for f into the export directory. The payload
// is copied unmodified to a temporary file and renamed into place, so a
// failed export leaves no artifact behind.
func (g *ConsolidationGrouper) ExportCSV(ctx context.Context, f domain.ConsolidationFilter) (a Artifact, err error) {
	defer obs.Time(ctx, "consolidation.export_csv")(&err)
	defer func() { g.metrics.Export(err == nil) }()

	name, body, err := g.Export(ctx, f)
	if err != nil {
		return Artifact{}, err
	}
	defer body.Close()

	if err := os.MkdirAll(g.exportDir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("export csv: create dir %q: %w", g.exportDir, err)
	}

	tmp, err := os.CreateTemp(g.exportDir, ".consolidation-*.tmp")
	if err != nil {
		return Artifact{}, fmt.Errorf("export csv: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("export csv: write payload: %w", err)
	}

	dest := filepath.Join(g.exportDir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return Artifact{}, fmt.Errorf("export csv: rename to %q: %w", dest, err)
	}

	g.logger.Info("consolidation exported",
		zap.String("file", dest),
		zap.Int64("bytes", n),
		zap.Int("scopes", len(domain.ScopesFor(f))),
	)
	return Artifact{Name: name, Path: dest, Bytes: n}, nil
}

func (g *ConsolidationGrouper) Close() {
	g.seq.Close()
}
