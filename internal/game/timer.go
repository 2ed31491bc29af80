package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// RoundTimer keeps at most one countdown per room. Each countdown publishes a tick
// with the remaining seconds once per interval and, unless stopped first, a
// timer_expired event followed by its expiry callback.
type RoundTimer struct {
	mu       sync.Mutex
	pub      Publisher
	interval time.Duration
	active   map[string]*countdown
	paused   map[string]pausedCountdown
}

type countdown struct {
	roomCode  string
	seconds   int
	remaining atomic.Int64
	onExpiry  func()
	cancel    context.CancelFunc
	done      chan struct{}
}

type pausedCountdown struct {
	remaining int
	onExpiry  func()
}

func NewRoundTimer(pub Publisher, interval time.Duration) *RoundTimer {
	if pub == nil {
		pub = Discard{}
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &RoundTimer{
		pub:      pub,
		interval: interval,
		active:   make(map[string]*countdown),
		paused:   make(map[string]pausedCountdown),
	}
}

// Start replaces any countdown already running or paused for roomCode.
func (t *RoundTimer) Start(roomCode string, seconds int, onExpiry func()) {
	t.Stop(roomCode)
	t.launch(roomCode, seconds, onExpiry)
}

// Stop cancels the countdown for roomCode. After Stop returns its expiry callback
// will not run. Stopping a room without a timer is a no-op.
func (t *RoundTimer) Stop(roomCode string) {
	t.mu.Lock()
	c := t.active[roomCode]
	delete(t.active, roomCode)
	delete(t.paused, roomCode)
	t.mu.Unlock()
	if c != nil {
		c.cancel()
		<-c.done
	}
}

// Pause halts ticks but keeps the remaining seconds so Resume can continue.
// It returns false when nothing was running.
func (t *RoundTimer) Pause(roomCode string) bool {
	t.mu.Lock()
	c := t.active[roomCode]
	delete(t.active, roomCode)
	t.mu.Unlock()
	if c == nil {
		return false
	}
	c.cancel()
	<-c.done
	t.mu.Lock()
	t.paused[roomCode] = pausedCountdown{
		remaining: int(c.remaining.Load()),
		onExpiry:  c.onExpiry,
	}
	t.mu.Unlock()
	return true
}

// Resume restarts a paused countdown from its remaining seconds.
func (t *RoundTimer) Resume(roomCode string) bool {
	t.mu.Lock()
	p, ok := t.paused[roomCode]
	delete(t.paused, roomCode)
	t.mu.Unlock()
	if !ok {
		return false
	}
	t.launch(roomCode, p.remaining, p.onExpiry)
	return true
}

func (t *RoundTimer) Running(roomCode string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.active[roomCode]
	return ok
}

func (t *RoundTimer) Paused(roomCode string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.paused[roomCode]
	return ok
}

// Remaining reports the seconds left on a running or paused countdown.
func (t *RoundTimer) Remaining(roomCode string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.active[roomCode]; ok {
		return int(c.remaining.Load()), true
	}
	if p, ok := t.paused[roomCode]; ok {
		return p.remaining, true
	}
	return 0, false
}

// StopAll cancels every countdown; used on shutdown.
func (t *RoundTimer) StopAll() {
	t.mu.Lock()
	codes := make([]string, 0, len(t.active)+len(t.paused))
	for code := range t.active {
		codes = append(codes, code)
	}
	for code := range t.paused {
		codes = append(codes, code)
	}
	t.mu.Unlock()
	for _, code := range codes {
		t.Stop(code)
	}
}

func (t *RoundTimer) launch(roomCode string, seconds int, onExpiry func()) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &countdown{
		roomCode: roomCode,
		seconds:  seconds,
		onExpiry: onExpiry,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	c.remaining.Store(int64(seconds))
	t.mu.Lock()
	if old := t.active[roomCode]; old != nil {
		old.cancel()
	}
	t.active[roomCode] = c
	t.mu.Unlock()
	go t.run(ctx, c)
}

func (t *RoundTimer) run(ctx context.Context, c *countdown) {
	defer close(c.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for remaining := c.seconds; remaining > 0; remaining-- {
		c.remaining.Store(int64(remaining))
		t.pub.Publish(c.roomCode, Event{
			Type:      EventTimerTick,
			RoomCode:  c.roomCode,
			Timestamp: time.Now().UTC(),
			Payload:   TickPayload{RemainingSeconds: remaining},
		})
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
	c.remaining.Store(0)

	// Only the countdown still registered for the room may fire; a concurrent
	// Stop or Start has already removed it otherwise.
	t.mu.Lock()
	owned := t.active[c.roomCode] == c
	if owned {
		delete(t.active, c.roomCode)
	}
	t.mu.Unlock()
	if !owned || ctx.Err() != nil {
		return
	}
	t.pub.Publish(c.roomCode, Event{
		Type:      EventTimerExpired,
		RoomCode:  c.roomCode,
		Timestamp: time.Now().UTC(),
	})
	if c.onExpiry != nil {
		go c.onExpiry()
	}
}
