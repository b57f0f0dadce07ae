package common

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1 000"},
		{2350, "2 350"},
		{1000005, "1 000 005"},
		{-7501, "-7 501"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%d)", tt.in)
	}
}

func TestFormatHoneyDelta(t *testing.T) {
	assert.Equal(t, "+0 🍯", FormatHoneyDelta(0))
	assert.Equal(t, "+1 000 🍯", FormatHoneyDelta(1000))
	assert.Equal(t, "-5 🍯", FormatHoneyDelta(-5))
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "игрок"},
		{2, "игрока"},
		{5, "игроков"},
		{11, "игроков"},
		{12, "игроков"},
		{21, "игрок"},
		{22, "игрока"},
		{111, "игроков"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PluralizePlayers(tt.n), "n=%d", tt.n)
	}
	assert.Equal(t, "3 игрока", FormatPlayers(3))
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(42)
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, km.Len(), "entries must be released")
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()
	unlockA := km.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock(2)
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "lock for another key blocked")
	}
}
