package allocation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoomLocks_SerializesSameRoom(t *testing.T) {
	l := newRoomLocks()
	unlock := l.Lock(1)

	acquired := make(chan struct{})
	go func() {
		u := l.Lock(2, 1)
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired room 1 while it was locked")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock was never released")
	}
}

func TestRoomLocks_OppositeOrderDoesNotDeadlock(t *testing.T) {
	l := newRoomLocks()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); l.Lock(1, 2)() }()
		go func() { defer wg.Done(); l.Lock(2, 1)() }()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.rooms)
}

func TestRoomLocks_IgnoresZeroAndDuplicates(t *testing.T) {
	l := newRoomLocks()
	unlock := l.Lock(0, 3, 3)
	l.mu.Lock()
	assert.Len(t, l.rooms, 1)
	l.mu.Unlock()
	unlock()
	assert.Empty(t, l.rooms)
}
