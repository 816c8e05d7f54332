package testutil

import (
	"context"

	"shipment-dashboard/internal/domain"
)

// PendingCall is a fetch held open until the test releases it.
type PendingCall struct {
	Op            string
	Filter        domain.FilterState
	Consolidation domain.ConsolidationFilter

	release chan error
}

// Release lets the call complete with the fake's data.
func (c *PendingCall) Release() { c.release <- nil }

// Fail makes the call return err.
func (c *PendingCall) Fail(err error) { c.release <- err }

// GatedAPI blocks shipment and consolidation queries until released, so
// tests can choose the order responses arrive in.
type GatedAPI struct {
	*FakeAPI
	Started chan *PendingCall
}

func NewGatedAPI(fake *FakeAPI) *GatedAPI {
	return &GatedAPI{FakeAPI: fake, Started: make(chan *PendingCall, 64)}
}

func (g *GatedAPI) hold(ctx context.Context, call *PendingCall) error {
	call.release = make(chan error, 1)
	g.Started <- call
	select {
	case err := <-call.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *GatedAPI) ListShipments(ctx context.Context, f domain.FilterState) (domain.PageResult, error) {
	if err := g.hold(ctx, &PendingCall{Op: "shipments", Filter: f}); err != nil {
		return domain.PageResult{}, err
	}
	return g.FakeAPI.ListShipments(context.WithoutCancel(ctx), f)
}

func (g *GatedAPI) Consolidation(ctx context.Context, f domain.ConsolidationFilter) ([]domain.ConsolidationGroup, error) {
	if err := g.hold(ctx, &PendingCall{Op: "consolidation", Consolidation: f}); err != nil {
		return nil, err
	}
	return g.FakeAPI.Consolidation(context.WithoutCancel(ctx), f)
}
