package game

import "sync"

// roomLocks hands out one mutex per room. Entries are dropped once no caller
// holds or waits for them, so finished rooms do not accumulate.
type roomLocks struct {
	mu    sync.Mutex
	rooms map[string]*roomLock
}

type roomLock struct {
	sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{rooms: make(map[string]*roomLock)}
}

// lock blocks until the caller owns roomID and returns the matching unlock.
func (l *roomLocks) lock(roomID string) func() {
	l.mu.Lock()
	entry, ok := l.rooms[roomID]
	if !ok {
		entry = &roomLock{}
		l.rooms[roomID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.Lock()
	return func() {
		entry.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.rooms, roomID)
		}
		l.mu.Unlock()
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
