package mqttv5

import (
	"sync"
	"time"
)

// KeepAlive tracks the keep-alive deadline for a single client connection.
// Unlike a broker, which must track this per connected client, a client
// only ever has one network connection live at a time, so this carries
// just that one deadline rather than a client-ID-keyed map.
type KeepAlive struct {
	mu           sync.Mutex
	interval     uint16 // effective keep-alive seconds (0 = disabled)
	graceFactor  float64
	lastActivity time.Time
	deadline     time.Time
}

// NewKeepAlive creates a keep-alive tracker with the MQTT-suggested 1.5x
// grace period.
func NewKeepAlive() *KeepAlive {
	return &KeepAlive{graceFactor: 1.5}
}

// SetGraceFactor sets the grace period multiplier applied to the
// keep-alive interval before a connection is considered expired.
func (k *KeepAlive) SetGraceFactor(factor float64) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if factor < 1.0 {
		factor = 1.0
	}
	k.graceFactor = factor
}

// Start begins tracking a new connection with the given effective
// keep-alive interval (after any server override has been applied).
func (k *KeepAlive) Start(interval uint16) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.interval = interval
	now := time.Now()
	k.lastActivity = now
	k.deadline = k.deadlineFrom(now)
}

// Stop clears tracking state, e.g. on disconnect.
func (k *KeepAlive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.interval = 0
	k.lastActivity = time.Time{}
	k.deadline = time.Time{}
}

// Touch records activity (a sent or received packet), pushing the
// deadline out by another interval.
func (k *KeepAlive) Touch() {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()
	k.lastActivity = now
	if k.interval > 0 {
		k.deadline = k.deadlineFrom(now)
	}
}

func (k *KeepAlive) deadlineFrom(t time.Time) time.Time {
	if k.interval == 0 {
		return time.Time{}
	}
	timeout := time.Duration(float64(k.interval)*k.graceFactor) * time.Second
	return t.Add(timeout)
}

// IsExpired reports whether the connection has gone silent past its
// keep-alive deadline. A zero interval never expires.
func (k *KeepAlive) IsExpired() bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.interval == 0 {
		return false
	}
	return time.Now().After(k.deadline)
}

// Deadline returns the current deadline, and false if keep-alive tracking
// hasn't been started (or has been stopped).
func (k *KeepAlive) Deadline() (time.Time, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.interval == 0 && k.deadline.IsZero() {
		return time.Time{}, false
	}
	return k.deadline, true
}

// Interval returns the effective keep-alive interval in seconds.
func (k *KeepAlive) Interval() uint16 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.interval
}

// LastActivity returns the timestamp of the most recent Touch.
func (k *KeepAlive) LastActivity() time.Time {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.lastActivity
}
