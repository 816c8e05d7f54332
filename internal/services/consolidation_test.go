package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/testutil"
)

var exportDay = time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)

func newGrouper(t *testing.T, source *testutil.FakeAPI) (*ConsolidationGrouper, string) {
	dir := t.TempDir()
	g := NewConsolidationGrouper(context.Background(), source, ConsolidationOptions{
		ExportDir: dir,
		Now:       func() time.Time { return exportDay },
	})
	t.Cleanup(g.Close)
	return g, dir
}

func TestConsolidationFetchGroups(t *testing.T) {
	fake := testutil.NewFakeAPI(testutil.Shipments(12))
	g, _ := newGrouper(t, fake)

	groups, err := g.FetchGroups(waitCtx(t), domain.ConsolidationFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, groups)

	seen := map[domain.GroupKey]bool{}
	for _, grp := range groups {
		assert.False(t, seen[grp.Key()], "group keys must be unique")
		seen[grp.Key()] = true
		assert.Equal(t, len(grp.Shipments), grp.GroupCount)
	}

	filtered, err := g.FetchGroups(waitCtx(t), domain.ConsolidationFilter{Destination: "GUY"})
	require.NoError(t, err)
	for _, grp := range filtered {
		assert.Equal(t, "GUY", grp.Destination)
	}
	assert.Equal(t, "GUY", g.Applied().Destination)

	_, err = g.FetchGroups(waitCtx(t), domain.ConsolidationFilter{Destination: "XYZ"})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, 2, fake.Calls("consolidation"), "invalid filters never reach the api")
}

func TestConsolidationToggleDetail(t *testing.T) {
	g, _ := newGrouper(t, testutil.NewFakeAPI(testutil.Shipments(12)))
	groups, err := g.FetchGroups(waitCtx(t), domain.ConsolidationFilter{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(groups), 2)

	assert.Equal(t, -1, g.Expanded())

	idx, err := g.ToggleDetail(0)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = g.ToggleDetail(1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx, "opening another group collapses the previous one")

	idx, err = g.ToggleDetail(1)
	require.NoError(t, err)
	assert.Equal(t, -1, idx)

	_, err = g.ToggleDetail(len(groups))
	assert.Error(t, err)
	assert.Equal(t, -1, g.Expanded())

	_, err = g.ToggleDetail(0)
	require.NoError(t, err)
	_, err = g.FetchGroups(waitCtx(t), domain.ConsolidationFilter{Destination: "SVG"})
	require.NoError(t, err)
	assert.Equal(t, -1, g.Expanded(), "a new fetch collapses detail")
}

func TestConsolidationExportScopeMirrorsFilter(t *testing.T) {
	cases := []struct {
		name   string
		filter domain.ConsolidationFilter
		want   []domain.ExportScope
	}{
		{"none", domain.ConsolidationFilter{}, []domain.ExportScope{}},
		{"destination", domain.ConsolidationFilter{Destination: "GUY"}, []domain.ExportScope{{Destination: "GUY"}}},
		{"both", domain.ConsolidationFilter{Destination: "SVG", ArrivalDate: domain.MustParseDate("2025-01-05")},
			[]domain.ExportScope{{Destination: "SVG", ArrivalDate: "2025-01-05"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := testutil.NewFakeAPI(testutil.Shipments(12))
			g, _ := newGrouper(t, fake)

			name, body, err := g.Export(context.Background(), tc.filter)
			require.NoError(t, err)
			body.Close()
			assert.Equal(t, "consolidation-2025-03-04.csv", name)

			req, ok := fake.LastExport()
			require.True(t, ok)
			assert.Equal(t, tc.want, req.Scopes)
		})
	}
}

func TestConsolidationExportCSVWritesPayloadUnmodified(t *testing.T) {
	fake := testutil.NewFakeAPI(testutil.Shipments(12))
	g, dir := newGrouper(t, fake)

	f := domain.ConsolidationFilter{Destination: "GUY"}
	art, err := g.ExportCSV(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "consolidation-2025-03-04.csv", art.Name)
	assert.Equal(t, filepath.Join(dir, art.Name), art.Path)

	written, err := os.ReadFile(art.Path)
	require.NoError(t, err)

	body, err := fake.ExportConsolidation(context.Background(), domain.NewExportRequest(f))
	require.NoError(t, err)
	want, err := io.ReadAll(body)
	require.NoError(t, err)

	assert.Equal(t, string(want), string(written))
	assert.Equal(t, int64(len(want)), art.Bytes)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestConsolidationExportFailureDeliversNothing(t *testing.T) {
	fake := testutil.NewFakeAPI(testutil.Shipments(12))
	fake.ExportErr = &domain.TransportError{Op: "export consolidation", StatusCode: 500, Detail: "export exploded"}
	g, dir := newGrouper(t, fake)

	_, err := g.ExportCSV(context.Background(), domain.ConsolidationFilter{})
	require.Error(t, err)
	assert.Equal(t, "export exploded", domain.UserMessage(err, "export failed"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConsolidationSupersededFetch(t *testing.T) {
	ctx := waitCtx(t)
	api := testutil.NewGatedAPI(testutil.NewFakeAPI(testutil.Shipments(12)))
	g := NewConsolidationGrouper(context.Background(), api, ConsolidationOptions{ExportDir: t.TempDir()})
	defer g.Close()

	first := make(chan error, 1)
	go func() {
		_, err := g.FetchGroups(ctx, domain.ConsolidationFilter{Destination: "GUY"})
		first <- err
	}()
	call1 := <-api.Started

	second := make(chan error, 1)
	go func() {
		_, err := g.FetchGroups(ctx, domain.ConsolidationFilter{Destination: "SVG"})
		second <- err
	}()
	call2 := <-api.Started

	call2.Release()
	require.NoError(t, <-second)
	call1.Release()
	assert.True(t, errors.Is(<-first, ErrSuperseded))

	assert.Equal(t, "SVG", g.Applied().Destination)
	for _, grp := range g.Groups() {
		assert.Equal(t, "SVG", grp.Destination)
	}
}

func TestConsolidationAppliedFollowsPendingFetch(t *testing.T) {
	ctx := waitCtx(t)
	api := testutil.NewGatedAPI(testutil.NewFakeAPI(testutil.Shipments(12)))
	g := NewConsolidationGrouper(context.Background(), api, ConsolidationOptions{ExportDir: t.TempDir()})
	defer g.Close()

	done := make(chan error, 1)
	go func() {
		_, err := g.FetchGroups(ctx, domain.ConsolidationFilter{Destination: "SLU"})
		done <- err
	}()
	call := <-api.Started

	assert.Empty(t, g.Groups())
	assert.Equal(t, "SLU", g.Applied().Destination, "scope moves with the request, not the result")

	call.Fail(&domain.TransportError{Op: "consolidation", StatusCode: 502})
	require.Error(t, <-done)
	assert.Equal(t, "SLU", g.Applied().Destination)
}
