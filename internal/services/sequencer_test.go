package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/testutil"
)

func newShipmentSequencer(api *testutil.GatedAPI, cache *ResultCache, abort bool) *Sequencer[domain.FilterState, domain.PageResult] {
	return NewSequencer(context.Background(), "shipments", SequencerHooks[domain.FilterState, domain.PageResult]{
		Fetch:  api.ListShipments,
		Begin:  cache.Begin,
		Commit: cache.Apply,
	}, SequencerOptions{AbortSuperseded: abort})
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSequencerDiscardsStaleResponse(t *testing.T) {
	for _, abort := range []bool{false, true} {
		name := "ignore"
		if abort {
			name = "abort"
		}
		t.Run(name, func(t *testing.T) {
			ctx := waitCtx(t)
			api := testutil.NewGatedAPI(testutil.NewFakeAPI(testutil.Shipments(25)))
			cache := NewResultCache()
			seq := newShipmentSequencer(api, cache, abort)
			defer seq.Close()

			s1 := domain.NewFilterState(10)
			s2, err := s1.With(domain.FieldDestination, "GUY")
			require.NoError(t, err)

			t1 := seq.Submit(s1)
			call1 := <-api.Started
			t2 := seq.Submit(s2)
			call2 := <-api.Started
			assert.Less(t, t1.Seq, t2.Seq)

			// S2 completes first, S1's response arrives afterwards.
			call2.Release()
			outcome, err := t2.Wait(ctx)
			require.NoError(t, err)
			assert.Equal(t, OutcomeCommitted, outcome)

			call1.Release()
			outcome, err = t1.Wait(ctx)
			assert.Equal(t, OutcomeStale, outcome)
			assert.True(t, errors.Is(err, ErrSuperseded))

			got, ok := cache.Current()
			require.True(t, ok)
			assert.Equal(t, 9, got.TotalCount)
			for _, rec := range got.Items {
				assert.Equal(t, "GUY", rec.Destination)
			}

			state, stateErr := seq.State()
			assert.Equal(t, StateReady, state)
			assert.NoError(t, stateErr)
		})
	}
}

func TestSequencerInOrderCompletionStillCommitsLatest(t *testing.T) {
	ctx := waitCtx(t)
	api := testutil.NewGatedAPI(testutil.NewFakeAPI(testutil.Shipments(25)))
	cache := NewResultCache()
	seq := newShipmentSequencer(api, cache, false)
	defer seq.Close()

	s1 := domain.NewFilterState(10)
	s2, err := s1.With(domain.FieldDestination, "SVG")
	require.NoError(t, err)

	t1 := seq.Submit(s1)
	call1 := <-api.Started
	t2 := seq.Submit(s2)
	call2 := <-api.Started

	call1.Release()
	outcome, _ := t1.Wait(ctx)
	assert.Equal(t, OutcomeStale, outcome)
	_, ok := cache.Current()
	assert.False(t, ok, "a superseded response must not fill the cache")

	call2.Release()
	outcome, err = t2.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, outcome)

	got, ok := cache.Current()
	require.True(t, ok)
	for _, rec := range got.Items {
		assert.Equal(t, "SVG", rec.Destination)
	}
}

func TestSequencerFailureKeepsLastGood(t *testing.T) {
	ctx := waitCtx(t)
	api := testutil.NewGatedAPI(testutil.NewFakeAPI(testutil.Shipments(25)))
	cache := NewResultCache()
	seq := newShipmentSequencer(api, cache, true)
	defer seq.Close()

	s1 := domain.NewFilterState(10)
	t1 := seq.Submit(s1)
	(<-api.Started).Release()
	_, err := t1.Wait(ctx)
	require.NoError(t, err)

	s2, err := s1.With(domain.FieldCarrier, "FEDEX")
	require.NoError(t, err)
	t2 := seq.Submit(s2)
	transportErr := &domain.TransportError{Op: "list shipments", StatusCode: 502}
	(<-api.Started).Fail(transportErr)

	outcome, err := t2.Wait(ctx)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.ErrorIs(t, err, transportErr)

	state, stateErr := seq.State()
	assert.Equal(t, StateFailed, state)
	assert.ErrorIs(t, stateErr, transportErr)

	_, ok := cache.Current()
	assert.False(t, ok)
	good, answered, ok := cache.LastGood()
	require.True(t, ok)
	assert.Equal(t, 25, good.TotalCount)
	assert.True(t, answered.Equal(s1))
}

func TestSequencerStaleFailureIsIgnored(t *testing.T) {
	ctx := waitCtx(t)
	api := testutil.NewGatedAPI(testutil.NewFakeAPI(testutil.Shipments(5)))
	cache := NewResultCache()
	seq := newShipmentSequencer(api, cache, false)
	defer seq.Close()

	s1 := domain.NewFilterState(10)
	s2, err := s1.With(domain.FieldSearch, "3")
	require.NoError(t, err)

	t1 := seq.Submit(s1)
	call1 := <-api.Started
	t2 := seq.Submit(s2)
	call2 := <-api.Started

	call1.Fail(errors.New("connection reset"))
	outcome, _ := t1.Wait(ctx)
	assert.Equal(t, OutcomeStale, outcome)

	state, _ := seq.State()
	assert.Equal(t, StateLoading, state)

	call2.Release()
	_, err = t2.Wait(ctx)
	require.NoError(t, err)

	got, ok := cache.Current()
	require.True(t, ok)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(3), got.Items[0].ID)
}

func TestSequencerWaitFollowsNewerSubmissions(t *testing.T) {
	ctx := waitCtx(t)
	api := testutil.NewGatedAPI(testutil.NewFakeAPI(testutil.Shipments(5)))
	cache := NewResultCache()
	seq := newShipmentSequencer(api, cache, false)
	defer seq.Close()

	outcome, err := seq.Wait(ctx)
	require.NoError(t, err, "idle sequencer returns immediately")
	assert.Equal(t, OutcomeCommitted, outcome)

	s1 := domain.NewFilterState(10)
	seq.Submit(s1)
	call1 := <-api.Started

	done := make(chan Outcome, 1)
	go func() {
		o, _ := seq.Wait(ctx)
		done <- o
	}()

	s2, err := s1.With(domain.FieldStatus, "received")
	require.NoError(t, err)
	seq.Submit(s2)
	call2 := <-api.Started

	call1.Release()
	call2.Release()

	select {
	case o := <-done:
		assert.Equal(t, OutcomeCommitted, o)
	case <-ctx.Done():
		t.Fatal("Wait did not return")
	}
}

func TestSequencerCloseResolvesInFlight(t *testing.T) {
	ctx := waitCtx(t)
	api := testutil.NewGatedAPI(testutil.NewFakeAPI(nil))
	seq := newShipmentSequencer(api, NewResultCache(), false)

	ticket := seq.Submit(domain.NewFilterState(10))
	<-api.Started
	seq.Close()

	outcome, err := ticket.Wait(ctx)
	assert.Equal(t, OutcomeStale, outcome)
	assert.ErrorIs(t, err, ErrSuperseded)

	after := seq.Submit(domain.NewFilterState(10))
	outcome, _ = after.Wait(ctx)
	assert.Equal(t, OutcomeStale, outcome)
}
