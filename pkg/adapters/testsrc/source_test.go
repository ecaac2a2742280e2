package testsrc

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framehost/pkg/frame"
)

func TestSource_Frames(t *testing.T) {
	src, err := New(Config{Width: 32, Height: 16, Frames: 3, FrameRate: frame.Rational{Num: 30000, Den: 1001}})
	require.NoError(t, err)

	info := src.Info()
	assert.Equal(t, 32, info.Width)
	assert.Equal(t, Formats, info.Formats)

	require.NoError(t, src.Configure("yuv420p"))

	var pts []int64
	for {
		f, err := src.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, "yuv420p", f.PixelFormat)
		assert.Len(t, f.Data, 32*16*3/2)
		pts = append(pts, f.PTS)
	}
	assert.Equal(t, []int64{0, 33367, 66733}, pts)
}

func TestSource_Formats(t *testing.T) {
	for _, pixfmt := range Formats {
		t.Run(pixfmt, func(t *testing.T) {
			src, err := New(Config{Width: 8, Height: 8, Frames: 1})
			require.NoError(t, err)
			require.NoError(t, src.Configure(pixfmt))

			f, err := src.Next(context.Background())
			require.NoError(t, err)
			info, _ := frame.LookupPixelFormat(pixfmt)
			assert.Len(t, f.Data, info.FrameSize(8, 8))
		})
	}
}

func TestSource_Errors(t *testing.T) {
	_, err := New(Config{Width: 0, Height: 8})
	assert.Error(t, err)

	src, err := New(Config{Width: 8, Height: 8})
	require.NoError(t, err)
	assert.Error(t, src.Configure("nv12"))

	_, err = src.Next(context.Background())
	assert.Error(t, err)

	require.NoError(t, src.Configure("rgba"))
	require.NoError(t, src.Close())
	_, err = src.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestSource_ContextCancelled(t *testing.T) {
	src, err := New(Config{Width: 8, Height: 8})
	require.NoError(t, err)
	require.NoError(t, src.Configure("rgba"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
