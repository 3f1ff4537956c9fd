package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferDropsWhenFull(t *testing.T) {
	r := New[int]("test", 2)
	assert.True(t, r.Offer(1))
	assert.True(t, r.Offer(2))
	assert.False(t, r.Offer(3))

	sent, dropped := r.Stats()
	assert.Equal(t, uint64(2), sent)
	assert.Equal(t, uint64(1), dropped)

	got := r.Poll(0)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Payload)
	assert.Equal(t, 2, got[1].Payload)
	assert.Equal(t, "test", got[0].Source)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestPollNeverBlocksAndHonorsMax(t *testing.T) {
	r := New[string]("test", 8)
	assert.Empty(t, r.Poll(1))

	for _, s := range []string{"a", "b", "c"} {
		require.True(t, r.Offer(s))
	}
	first := r.Poll(2)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].Payload)
	rest := r.Poll(2)
	require.Len(t, rest, 1)
	assert.Equal(t, "c", rest[0].Payload)
	assert.Zero(t, r.Len())
}

func TestSendBlocksUntilSpaceOrContext(t *testing.T) {
	r := New[int]("test", 1)
	require.NoError(t, r.Send(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Send(ctx, 2), context.DeadlineExceeded)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, r.Send(context.Background(), 3))
	}()
	got := r.Poll(1)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Payload)

	wg.Wait()
	got = r.Poll(0)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Payload)
}

func TestCloseKeepsQueuedValues(t *testing.T) {
	r := New[int]("test", 4)
	require.True(t, r.Offer(1))
	r.Close()
	r.Close()

	assert.True(t, r.Closed())
	assert.False(t, r.Offer(2))
	assert.ErrorIs(t, r.Send(context.Background(), 3), ErrRelayClosed)

	got := r.Poll(0)
	require.Len(t, got, 1)
	assert.Empty(t, r.Poll(0))
}

func TestCloseUnblocksSender(t *testing.T) {
	r := New[int]("test", 1)
	require.True(t, r.Offer(1))

	errc := make(chan error, 1)
	go func() { errc <- r.Send(context.Background(), 2) }()

	time.Sleep(10 * time.Millisecond)
	r.Close()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrRelayClosed)
	case <-time.After(time.Second):
		t.Fatal("sender still blocked after Close")
	}
}
