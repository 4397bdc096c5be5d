package hw

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFadeSignalSetAndWait(t *testing.T) {
	s := NewFadeSignal()
	s.Set(0)
	s.Set(3)

	bits, ok := s.Wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, uint64(0b1001), bits)

	// Bits are cleared on return.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	bits, ok = s.Wait(ctx)
	assert.False(t, ok)
	assert.Zero(t, bits)
}

func TestFadeSignalWaitBlocksUntilSet(t *testing.T) {
	s := NewFadeSignal()

	done := make(chan uint64, 1)
	go func() {
		bits, ok := s.Wait(context.Background())
		if ok {
			done <- bits
		}
	}()

	time.Sleep(10 * time.Millisecond)
	s.Set(7)

	select {
	case bits := <-done:
		assert.Equal(t, uint64(1<<7), bits)
	case <-time.After(time.Second):
		t.Fatal("Wait did not wake after Set")
	}
}

func TestFadeSignalIgnoresOutOfRangeChannel(t *testing.T) {
	s := NewFadeSignal()
	s.Set(MaxChannels)
	s.Set(MaxChannels + 10)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	bits, ok := s.Wait(ctx)
	assert.False(t, ok)
	assert.Zero(t, bits)
}

func TestFadeSignalConcurrentSet(t *testing.T) {
	s := NewFadeSignal()

	var wg sync.WaitGroup
	for ch := uint32(0); ch < 16; ch++ {
		wg.Add(1)
		go func(ch uint32) {
			defer wg.Done()
			s.Set(ch)
		}(ch)
	}
	wg.Wait()

	var got uint64
	for got != (1<<16)-1 {
		bits, ok := s.Wait(context.Background())
		require.True(t, ok)
		got |= bits
	}
	assert.Equal(t, uint64((1<<16)-1), got)
}
