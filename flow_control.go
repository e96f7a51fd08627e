package mqttv5

import (
	"container/list"
	"context"
	"errors"
	"sync"
)

var (
	ErrQuotaExceeded = errors.New("receive quota exceeded")
	ErrFlowClosed    = errors.New("flow controller closed")
)

// quotaWaiter is a single caller parked in FlowController's FIFO waiter
// queue. grant is buffered by 1 so Release can hand off a freed slot
// without blocking on a waiter that has already given up via ctx.
type quotaWaiter struct {
	grant chan error
}

// FlowController manages flow control for MQTT v5.0 connections.
// It tracks the receive maximum and manages in-flight message quotas.
// MQTT v5.0 spec: Section 4.9
//
// Beyond the non-blocking Acquire/TryAcquire pair, AcquireWait implements
// the mandatory quota-waiter invariant: a caller that finds no quota
// available is enqueued FIFO and resumes as soon as a slot frees, rather
// than failing immediately.
type FlowController struct {
	mu             sync.Mutex
	receiveMaximum uint16
	inFlight       uint16
	waiters        list.List // of *quotaWaiter, FIFO
	closed         bool
}

// NewFlowController creates a new flow controller with the given receive maximum.
// The receive maximum is the maximum number of QoS > 0 PUBLISH packets that
// can be outstanding (sent but not yet acknowledged) at any time.
func NewFlowController(receiveMaximum uint16) *FlowController {
	if receiveMaximum == 0 {
		receiveMaximum = 65535 // Default per MQTT spec
	}
	return &FlowController{
		receiveMaximum: receiveMaximum,
	}
}

// ReceiveMaximum returns the configured receive maximum.
func (f *FlowController) ReceiveMaximum() uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receiveMaximum
}

// SetReceiveMaximum updates the receive maximum.
func (f *FlowController) SetReceiveMaximum(maximum uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if maximum == 0 {
		maximum = 65535
	}
	f.receiveMaximum = maximum
}

// Available returns the number of available slots for in-flight messages.
func (f *FlowController) Available() uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight >= f.receiveMaximum {
		return 0
	}
	return f.receiveMaximum - f.inFlight
}

// InFlight returns the current number of in-flight messages.
func (f *FlowController) InFlight() uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// CanSend returns true if there is quota available to send a message.
func (f *FlowController) CanSend() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight < f.receiveMaximum
}

// Acquire attempts to acquire quota for sending a message.
// Returns an error if the quota is exceeded.
func (f *FlowController) Acquire() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight >= f.receiveMaximum {
		return ErrQuotaExceeded
	}
	f.inFlight++
	return nil
}

// TryAcquire attempts to acquire quota without blocking.
// Returns true if quota was acquired, false otherwise.
func (f *FlowController) TryAcquire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight >= f.receiveMaximum {
		return false
	}
	f.inFlight++
	return true
}

// Release releases quota when a message is acknowledged. If a caller is
// parked in AcquireWait, the freed slot is handed directly to the
// longest-waiting one (FIFO) instead of being returned to the pool, so
// inFlight is left unchanged in that case.
func (f *FlowController) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if front := f.waiters.Front(); front != nil {
		f.waiters.Remove(front)
		front.Value.(*quotaWaiter).grant <- nil
		return
	}

	if f.inFlight > 0 {
		f.inFlight--
	}
}

// Reset resets the in-flight count to zero.
func (f *FlowController) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = 0
}

// AcquireWait acquires quota, blocking until a slot frees if the receive
// maximum is currently exhausted. Waiters are served FIFO. Returns
// ctx.Err() if ctx is cancelled first, or ErrFlowClosed if Close is
// called while waiting.
func (f *FlowController) AcquireWait(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlowClosed
	}
	if f.inFlight < f.receiveMaximum {
		f.inFlight++
		f.mu.Unlock()
		return nil
	}

	w := &quotaWaiter{grant: make(chan error, 1)}
	elem := f.waiters.PushBack(w)
	f.mu.Unlock()

	select {
	case err := <-w.grant:
		return err
	case <-ctx.Done():
		f.mu.Lock()
		// If Release already handed us the slot, a value is sitting in
		// grant even though we're removing elem here; drain and honor it
		// to avoid silently leaking the quota it represents.
		select {
		case err := <-w.grant:
			f.mu.Unlock()
			if err != nil {
				return err
			}
			return nil
		default:
		}
		f.waiters.Remove(elem)
		f.mu.Unlock()
		return ctx.Err()
	}
}

// Close fails every caller currently parked in AcquireWait with
// ErrFlowClosed and marks the controller closed, so future AcquireWait
// calls fail fast instead of hanging past connection loss.
func (f *FlowController) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for e := f.waiters.Front(); e != nil; e = e.Next() {
		e.Value.(*quotaWaiter).grant <- ErrFlowClosed
	}
	f.waiters.Init()
}
