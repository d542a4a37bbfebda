package allocation

import (
	"slices"
	"sync"
)

// roomLocks hands out one mutex per room id. Entries are dropped once no
// goroutine holds or waits for them.
type roomLocks struct {
	mu    sync.Mutex
	rooms map[int64]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{rooms: make(map[int64]*roomLock)}
}

// Lock acquires the locks of all non-zero ids in ascending order and returns
// a function releasing them.
func (l *roomLocks) Lock(ids ...int64) (unlock func()) {
	keys := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			keys = append(keys, id)
		}
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]*roomLock, 0, len(keys))
	for _, id := range keys {
		rl := l.acquire(id)
		rl.mu.Lock()
		held = append(held, rl)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(keys[i])
		}
	}
}

func (l *roomLocks) acquire(id int64) *roomLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl, ok := l.rooms[id]
	if !ok {
		rl = &roomLock{}
		l.rooms[id] = rl
	}
	rl.refs++
	return rl
}

func (l *roomLocks) release(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl := l.rooms[id]
	rl.refs--
	if rl.refs == 0 {
		delete(l.rooms, id)
	}
}
