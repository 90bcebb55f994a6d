package approval

import (
	"context"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/x/attestation"
)

// Future is the eventual outcome of an engine call issued through the
// Service facade.
type Future struct {
	done chan struct{}
	req  *ApprovalRequest
	err  error
}

// Done is closed once the outcome is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the outcome is available or the context ends.
func (f *Future) Wait(ctx context.Context) (*ApprovalRequest, error) {
	select {
	case <-f.done:
		return f.req, f.err
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrInvalidState, ctx.Err().Error())
	}
}

// Service is the non-blocking facade over the store. All logic stays
// synchronous in the store, the facade only moves the call off the
// caller's goroutine, so both styles share one implementation.
type Service struct {
	store *Store
}

// NewService wraps given store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

func future(fn func() (*ApprovalRequest, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.req, f.err = fn()
	}()
	return f
}

// Submit is the non-blocking counterpart of Store.Submit.
func (s *Service) Submit(entityID string, tier attest.Tier, submitterID string) *Future {
	return future(func() (*ApprovalRequest, error) {
		return s.store.Submit(entityID, tier, submitterID)
	})
}

// Approve is the non-blocking counterpart of Store.Approve.
func (s *Service) Approve(entityID, approverID string) *Future {
	return future(func() (*ApprovalRequest, error) {
		return s.store.Approve(entityID, approverID)
	})
}

// ApproveWithInput is the non-blocking counterpart of
// Store.ApproveWithInput.
func (s *Service) ApproveWithInput(entityID, approverID string, in attestation.Input) *Future {
	return future(func() (*ApprovalRequest, error) {
		return s.store.ApproveWithInput(entityID, approverID, in)
	})
}

// Reject is the non-blocking counterpart of Store.Reject.
func (s *Service) Reject(entityID, reason string) *Future {
	return future(func() (*ApprovalRequest, error) {
		return s.store.Reject(entityID, reason)
	})
}
