package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func lockCount(l *Ledger) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func TestLockEntryReapedAfterLastUnlock(t *testing.T) {
	l := New()

	unlock := l.Lock("char-1")
	assert.Equal(t, 1, lockCount(l))
	unlock()
	assert.Equal(t, 0, lockCount(l))
}

// A waiter on the same character must keep the entry alive across the first
// holder's unlock, so both flows serialize on the same mutex.
func TestLockEntrySurvivesWhileContended(t *testing.T) {
	l := New()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("char-1")
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, lockCount(l))
}
