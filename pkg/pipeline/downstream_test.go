package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framehost/pkg/frame"
)

func TestChannel_BlocksWhenFull(t *testing.T) {
	ch := NewChannel(1)
	ctx := context.Background()

	require.NoError(t, ch.Send(ctx, frame.New(1, 1, "gray", 0, nil)))
	assert.Equal(t, 1, ch.Len())

	sent := make(chan error, 1)
	go func() { sent <- ch.Send(ctx, frame.New(1, 1, "gray", 1, nil)) }()

	select {
	case <-sent:
		t.Fatal("send on a full channel returned")
	case <-time.After(20 * time.Millisecond):
	}

	f := <-ch.Frames()
	assert.Equal(t, int64(0), f.PTS)
	require.NoError(t, <-sent)
	assert.Equal(t, int64(1), (<-ch.Frames()).PTS)
}

func TestChannel_ContextCancel(t *testing.T) {
	ch := NewChannel(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := ch.Send(ctx, frame.New(1, 1, "gray", 0, nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannel_CloseReleasesSenders(t *testing.T) {
	ch := NewChannel(0)
	sent := make(chan error, 1)
	go func() { sent <- ch.Send(context.Background(), frame.New(1, 1, "gray", 0, nil)) }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, ch.Close())

	select {
	case err := <-sent:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("sender not released")
	}

	assert.ErrorIs(t, ch.Send(context.Background(), frame.New(1, 1, "gray", 1, nil)), ErrClosed)
	_, open := <-ch.Frames()
	assert.False(t, open)
	assert.NoError(t, ch.Close())
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	ctx := context.Background()
	require.NoError(t, c.Send(ctx, frame.New(1, 1, "gray", 5, nil)))
	require.NoError(t, c.Send(ctx, frame.New(1, 1, "gray", 3, nil)))

	frames := c.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, int64(5), frames[0].PTS)
	assert.Equal(t, int64(3), frames[1].PTS)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send(ctx, frame.New(1, 1, "gray", 0, nil)), ErrClosed)
	assert.Equal(t, 2, c.Len())
}

func TestCounter(t *testing.T) {
	c := NewCounter(NewCollector())
	ctx := context.Background()
	require.NoError(t, c.Send(ctx, frame.New(2, 2, "gray", 0, make([]byte, 4))))
	require.NoError(t, c.Send(ctx, frame.New(2, 2, "gray", 1, make([]byte, 4))))

	frames, bytes := c.Totals()
	assert.Equal(t, int64(2), frames)
	assert.Equal(t, int64(8), bytes)
	assert.NoError(t, c.Close())
}

func TestDownstreamFunc(t *testing.T) {
	var got int64 = -1
	d := DownstreamFunc(func(_ context.Context, f *frame.Frame) error {
		got = f.PTS
		return nil
	})
	require.NoError(t, d.Send(context.Background(), frame.New(1, 1, "gray", 7, nil)))
	assert.Equal(t, int64(7), got)
}

func TestDiscard(t *testing.T) {
	counter := NewCounter(Discard{})
	require.NoError(t, counter.Send(context.Background(), frame.New(2, 2, "gray", 0, make([]byte, 4))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, counter.Send(ctx, frame.New(2, 2, "gray", 1, nil)), context.Canceled)

	frames, bytes := counter.Totals()
	assert.Equal(t, int64(1), frames)
	assert.Equal(t, int64(4), bytes)
	assert.NoError(t, counter.Close())
}
