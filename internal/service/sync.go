package service

import (
	"context"
	"sync"
)

// RemoteStatus reports the state of the background write behind a mutation.
type RemoteStatus string

const (
	RemotePending   RemoteStatus = "pending"
	RemoteConfirmed RemoteStatus = "confirmed"
	RemoteFailed    RemoteStatus = "failed"
	// RemoteSkipped means no remote write was attempted.
	RemoteSkipped RemoteStatus = "skipped"
)

// SyncResult is the two-phase outcome of a mutation: the local change is
// known when the call returns, the remote write settles later.
type SyncResult struct {
	applied bool

	mu     sync.Mutex
	status RemoteStatus
	err    error
	done   chan struct{}
}

func newPendingResult(applied bool) *SyncResult {
	return &SyncResult{applied: applied, status: RemotePending, done: make(chan struct{})}
}

func skippedResult(applied bool) *SyncResult {
	done := make(chan struct{})
	close(done)
	return &SyncResult{applied: applied, status: RemoteSkipped, done: done}
}

// Applied reports whether the local collection changed.
func (r *SyncResult) Applied() bool {
	return r.applied
}

// Status returns the current remote status.
func (r *SyncResult) Status() RemoteStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Err returns the remote error once the write failed.
func (r *SyncResult) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Done is closed when the remote phase has settled.
func (r *SyncResult) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the remote phase settles or ctx ends.
func (r *SyncResult) Wait(ctx context.Context) (RemoteStatus, error) {
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.status, r.err
	case <-ctx.Done():
		return r.Status(), ctx.Err()
	}
}

func (r *SyncResult) settle(err error) {
	r.mu.Lock()
	if err != nil {
		r.status = RemoteFailed
		r.err = err
	} else {
		r.status = RemoteConfirmed
	}
	r.mu.Unlock()
	close(r.done)
}
