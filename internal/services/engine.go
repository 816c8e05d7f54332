package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/logging"
	"shipment-dashboard/internal/platform/metrics"
	"shipment-dashboard/internal/platform/obs"
	"shipment-dashboard/internal/ports"
)

// Deps are the collaborators of the Engine. Only API is required.
type Deps struct {
	API     ports.MetricsAPI
	Store   ports.SnapshotStore
	Cache   ports.OverviewCache
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

type EngineConfig struct {
	PageSize        int
	ExportDir       string
	AbortSuperseded bool
	OverviewTTL     time.Duration
	Now             func() time.Time
}

// Engine is the orchestration engine behind the dashboard. It owns the
// filter state, the page cache, the consolidation view and the month
// window; its methods are the only way to change them.
type Engine struct {
	api     ports.MetricsAPI
	store   ports.SnapshotStore
	logger  *zap.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	filters   *FilterCoordinator
	cache     *ResultCache
	shipments *Sequencer[domain.FilterState, domain.PageResult]
	groups    *ConsolidationGrouper
	window    *TimeSeriesWindow
	overview  *OverviewLoader
}

func NewEngine(cfg EngineConfig, deps Deps) (*Engine, error) {
	if deps.API == nil {
		return nil, errors.New("new engine: metrics api is required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("new engine: page size %d must be positive", cfg.PageSize)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := logging.OrNop(deps.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		api:     deps.API,
		store:   deps.Store,
		logger:  logger,
		metrics: deps.Metrics,
		ctx:     ctx,
		cancel:  cancel,
		cache:   NewResultCache(),
		window:  NewTimeSeriesWindow(),
	}

	filters, err := NewFilterCoordinator(cfg.PageSize, e.cache.TotalPages)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("new engine: %w", err)
	}
	e.filters = filters

	e.shipments = NewSequencer(ctx, "shipments", SequencerHooks[domain.FilterState, domain.PageResult]{
		Fetch:       deps.API.ListShipments,
		Begin:       e.cache.Begin,
		Commit:      e.cache.Apply,
		AfterCommit: e.persist,
	}, SequencerOptions{AbortSuperseded: cfg.AbortSuperseded, Logger: logger, Metrics: deps.Metrics})

	e.groups = NewConsolidationGrouper(ctx, deps.API, ConsolidationOptions{
		ExportDir:       cfg.ExportDir,
		AbortSuperseded: cfg.AbortSuperseded,
		Now:             cfg.Now,
		Logger:          logger,
		Metrics:         deps.Metrics,
	})
	e.overview = NewOverviewLoader(deps.API, deps.Cache, cfg.OverviewTTL, cfg.Now, logger, deps.Metrics)

	e.filters.Subscribe(func(s domain.FilterState) { e.shipments.Submit(s) })
	return e, nil
}

// persist stores a committed page so Restore can show it after a restart.
func (e *Engine) persist(ctx context.Context, f domain.FilterState, p domain.PageResult) {
	if e.store == nil {
		return
	}
	if err := e.store.SavePage(ctx, f.CacheKey(), p); err != nil {
		e.logger.Warn("snapshot not saved", zap.String("key", f.CacheKey()), zap.Error(err))
	}
}

// Filter returns the current snapshot.
func (e *Engine) Filter() domain.FilterState {
	return e.filters.Snapshot()
}

// SetFilter changes one filter field and submits the new snapshot.
func (e *Engine) SetFilter(field domain.Field, value string) (domain.FilterState, error) {
	snap, _, err := e.filters.SetFilter(field, value)
	return snap, err
}

// ClearFilters drops every filter and returns to page 1.
func (e *Engine) ClearFilters() domain.FilterState {
	snap, _ := e.filters.Reset()
	return snap
}

// SetPage navigates within [1, totalPages]. Out-of-range pages are
// rejected locally with a ValidationError wrapping ErrPageOutOfRange.
func (e *Engine) SetPage(n int) (domain.FilterState, error) {
	snap, _, err := e.filters.SetPage(n)
	return snap, err
}

func (e *Engine) NextPage() (domain.FilterState, error) {
	return e.SetPage(e.filters.Snapshot().Page + 1)
}

func (e *Engine) PreviousPage() (domain.FilterState, error) {
	return e.SetPage(e.filters.Snapshot().Page - 1)
}

// Refresh resubmits the current snapshot and waits for it to resolve.
func (e *Engine) Refresh(ctx context.Context) error {
	e.filters.Resubmit()
	return e.Wait(ctx)
}

// Wait blocks until the latest shipment query resolves. It returns the
// query's error when it failed.
func (e *Engine) Wait(ctx context.Context) error {
	outcome, err := e.shipments.Wait(ctx)
	if err != nil {
		return err
	}
	if outcome == OutcomeStale {
		return ErrSuperseded
	}
	return nil
}

// View is a read-only snapshot of everything the dashboard displays.
type View struct {
	Filter     domain.FilterState
	State      QueryState
	Err        error
	Page       domain.PageResult
	HasPage    bool
	Stale      bool
	TotalPages int
	CanPrev    bool
	CanNext    bool

	Groups        []domain.ConsolidationGroup
	Expanded      int
	Consolidation domain.ConsolidationFilter
	GroupsState   QueryState
	GroupsErr     error

	Buckets      []domain.MonthBucket
	Cursor       int
	CanPrevMonth bool
	CanNextMonth bool
	MonthDaily   []domain.DailyPoint
}

// View assembles the current state. While a query loads no page is shown;
// a last good page is shown as stale only when it answers the current
// snapshot exactly. CanPrev and CanNext follow the requested page and the
// last known page count, so they stay meaningful while a page loads.
func (e *Engine) View() View {
	snap := e.filters.Snapshot()
	state, err := e.shipments.State()

	v := View{
		Filter:     snap,
		State:      state,
		Err:        err,
		TotalPages: e.cache.TotalPages(snap),
		CanPrev:    e.cache.CanGoPrevious(snap),
		CanNext:    e.cache.CanGoNext(snap),

		Groups:        e.groups.Groups(),
		Expanded:      e.groups.Expanded(),
		Consolidation: e.groups.Applied(),

		Buckets:      e.window.Buckets(),
		CanPrevMonth: e.window.CanGoPrevious(),
		CanNextMonth: e.window.CanGoNext(),
		MonthDaily:   e.window.CurrentMonthDaily(),
	}
	v.Cursor, _ = e.window.Cursor()
	v.GroupsState, v.GroupsErr = e.groups.State()

	if p, ok := e.cache.Current(); ok {
		v.Page, v.HasPage = p, true
	} else if p, ok := e.cache.LastGoodFor(snap); ok {
		v.Page, v.HasPage, v.Stale = p, true, true
	}
	return v
}

// ShipmentDetail fetches one shipment. It does not touch the page cache.
func (e *Engine) ShipmentDetail(ctx context.Context, id int64) (domain.ShipmentRecord, error) {
	if id <= 0 {
		return domain.ShipmentRecord{}, &domain.ValidationError{
			Field: "shipment_id", Value: fmt.Sprint(id), Reason: "must be positive",
		}
	}
	rec, err := e.api.GetShipment(ctx, id)
	if err != nil {
		return domain.ShipmentRecord{}, fmt.Errorf("shipment detail %d: %w", id, err)
	}
	return rec, nil
}

func (e *Engine) FetchGroups(ctx context.Context, f domain.ConsolidationFilter) ([]domain.ConsolidationGroup, error) {
	return e.groups.FetchGroups(ctx, f)
}

func (e *Engine) ToggleDetail(i int) (int, error) {
	return e.groups.ToggleDetail(i)
}

// ExportCSV exports consolidation data scoped to the filter of the latest
// group request.
func (e *Engine) ExportCSV(ctx context.Context) (Artifact, error) {
	return e.groups.ExportCSV(ctx, e.groups.Applied())
}

// ExportStream is ExportCSV without the file: the caller streams body.
func (e *Engine) ExportStream(ctx context.Context) (string, io.ReadCloser, error) {
	return e.groups.Export(ctx, e.groups.Applied())
}

// LoadOverview fetches KPIs and charts and feeds the throughput series
// into the month window.
func (e *Engine) LoadOverview(ctx context.Context, r domain.DateRange) (domain.Overview, error) {
	o, err := e.overview.Load(ctx, r)
	if err != nil {
		return domain.Overview{}, err
	}
	if err := e.window.Load(o.Throughput); err != nil {
		return domain.Overview{}, fmt.Errorf("load overview: %w", err)
	}
	return o, nil
}

// FetchThroughput reloads only the throughput series.
func (e *Engine) FetchThroughput(ctx context.Context) (err error) {
	defer obs.Time(ctx, "throughput.fetch")(&err)

	points, err := e.api.Throughput(ctx)
	if err != nil {
		return fmt.Errorf("fetch throughput: %w", err)
	}
	return e.LoadThroughput(points)
}

func (e *Engine) LoadThroughput(points []domain.DailyPoint) error {
	return e.window.Load(points)
}

func (e *Engine) PreviousMonth() bool { return e.window.PreviousMonth() }

func (e *Engine) NextMonth() bool { return e.window.NextMonth() }

func (e *Engine) CurrentMonthDaily() []domain.DailyPoint {
	return e.window.CurrentMonthDaily()
}

func (e *Engine) Upload(ctx context.Context, filename string, r io.Reader) (domain.UploadResult, error) {
	return UploadShipments(ctx, e.api, e.overview, filename, r, e.logger)
}

// Restore loads the persisted page for the current snapshot into the last
// good slot, along with the pages either side of it so previous and next
// show stale data while they load. It reports whether the current page was
// restored.
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	if e.store == nil {
		return false, nil
	}
	snap := e.filters.Snapshot()
	around := []domain.FilterState{snap}
	if snap.Page > 1 {
		prev := snap
		prev.Page--
		around = append(around, prev)
	}
	next := snap
	next.Page++
	around = append(around, next)

	keys := make([]string, len(around))
	for i, f := range around {
		keys[i] = f.CacheKey()
	}
	pages, err := e.store.LoadMany(ctx, keys)
	if err != nil {
		return false, fmt.Errorf("restore snapshot: %w", err)
	}

	for _, f := range around[1:] {
		if p, ok := pages[f.CacheKey()]; ok {
			e.cache.Preload(f, p)
		}
	}
	p, ok := pages[snap.CacheKey()]
	if !ok {
		return false, nil
	}
	return e.cache.Restore(snap, p), nil
}

// Close aborts in-flight queries and waits for them to finish.
func (e *Engine) Close() {
	e.cancel()
	e.shipments.Close()
	e.groups.Close()
}
