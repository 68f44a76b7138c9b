package domain

import (
	"context"
	"errors"
	"sync"
)

// CancelToken is the cooperative cancellation signal handed to job bodies.
// Signalling it never interrupts a body; the body is expected to poll
// Cancelled or watch Context().Done().
type CancelToken struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelCauseFunc
	reason string
}

func NewCancelToken() *CancelToken {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &CancelToken{ctx: ctx, cancel: cancel}
}

// Cancel signals the token. Only the first reason is kept.
func (t *CancelToken) Cancel(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctx.Err() != nil {
		return
	}
	if reason == "" {
		reason = "Job canceled"
	}
	t.reason = reason
	t.cancel(errors.Join(ErrCanceled, errors.New(reason)))
}

func (t *CancelToken) Cancelled() bool {
	return t.ctx.Err() != nil
}

func (t *CancelToken) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Context is canceled together with the token, so it can be passed to
// exec.CommandContext and friends.
func (t *CancelToken) Context() context.Context {
	return t.ctx
}

// Err returns ErrCanceled once the token is signalled, nil otherwise.
func (t *CancelToken) Err() error {
	if t.Cancelled() {
		return ErrCanceled
	}
	return nil
}

// OnCancel registers fn to run once when the token is signalled. If the token
// is already signalled fn runs right away. The returned func unregisters it.
func (t *CancelToken) OnCancel(fn func(reason string)) (stop func() bool) {
	return context.AfterFunc(t.ctx, func() {
		fn(t.Reason())
	})
}

// IsCancellation reports whether err is a cooperative cancellation signal.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}
