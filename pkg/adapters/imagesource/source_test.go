package imagesource

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/mocks"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSource_ReadsInNameOrder(t *testing.T) {
	fs := mocks.NewFileSystem()
	dir := filepath.Join("in")
	fs.SetFile(filepath.Join(dir, "b.png"), pngBytes(t, 4, 2, color.White))
	fs.SetFile(filepath.Join(dir, "a.png"), pngBytes(t, 4, 2, color.Black))
	fs.SetFile(filepath.Join(dir, "c.png"), pngBytes(t, 8, 4, color.White))
	fs.SetFile(filepath.Join(dir, "notes.txt"), []byte("skip"))

	src, err := Open(fs, dir, frame.Rational{Num: 10, Den: 1})
	require.NoError(t, err)

	info := src.Info()
	assert.Equal(t, 4, info.Width)
	assert.Equal(t, 2, info.Height)
	require.NoError(t, src.Configure("gray"))

	var frames []*frame.Frame
	for {
		f, err := src.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		frames = append(frames, f)
	}
	require.Len(t, frames, 3)

	assert.Equal(t, byte(0), frames[0].Data[0])
	assert.Equal(t, byte(255), frames[1].Data[0])
	assert.Equal(t, int64(100000), frames[1].PTS)
	assert.Equal(t, 4, frames[2].Width, "later images are resized to the first")
	assert.Len(t, frames[2].Data, 8)
}

func TestSource_Errors(t *testing.T) {
	fs := mocks.NewFileSystem()
	_, err := Open(fs, "empty", frame.Rational{})
	assert.Error(t, err)

	fs.SetFile(filepath.Join("bad", "x.png"), []byte("garbage"))
	_, err = Open(fs, "bad", frame.Rational{})
	assert.Error(t, err)

	fs.SetFile(filepath.Join("ok", "x.png"), pngBytes(t, 2, 2, color.White))
	src, err := Open(fs, "ok", frame.Rational{})
	require.NoError(t, err)
	assert.Error(t, src.Configure("nv12"))
}
