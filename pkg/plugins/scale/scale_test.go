package scale

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

func rgbaFrame(t *testing.T, w, h int, c color.RGBA, pts int64) *frame.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := frame.FromImage(img, "rgba", pts)
	require.NoError(t, err)
	return f
}

func TestPlugin_Scales(t *testing.T) {
	for _, kernel := range []string{"nearest", "bilinear", "catmullrom"} {
		t.Run(kernel, func(t *testing.T) {
			p := New()
			res, err := p.Setup(8, 8, "rgba", ports.Options{"w": int64(4), "h": int64(2), "kernel": kernel})
			require.NoError(t, err)
			assert.Equal(t, 4, res.Config.Width)
			assert.Equal(t, 2, res.Config.Height)

			in := rgbaFrame(t, 8, 8, color.RGBA{R: 255, A: 255}, 500)
			out, err := p.ProcessFrame(in, res.Processor)
			require.NoError(t, err)
			require.Len(t, out, 1)

			assert.Equal(t, 4, out[0].Width)
			assert.Equal(t, 2, out[0].Height)
			assert.Equal(t, int64(500), out[0].PTS)
			assert.Len(t, out[0].Data, 4*2*4)
			assert.Equal(t, byte(255), out[0].Data[0])
		})
	}
}

func TestPlugin_SameSizePassesThrough(t *testing.T) {
	p := New()
	res, err := p.Setup(4, 4, "gray", ports.Options{})
	require.NoError(t, err)

	in := frame.New(4, 4, "gray", 0, make([]byte, 16))
	out, err := p.ProcessFrame(in, res.Processor)
	require.NoError(t, err)
	assert.Same(t, in, out[0])
}

func TestPlugin_GrayScales(t *testing.T) {
	p := New()
	res, err := p.Setup(4, 4, "gray", ports.Options{"w": int64(2), "h": int64(2), "kernel": "nearest"})
	require.NoError(t, err)

	data := make([]byte, 16)
	for i := range data {
		data[i] = 77
	}
	out, err := p.ProcessFrame(frame.New(4, 4, "gray", 0, data), res.Processor)
	require.NoError(t, err)
	assert.Equal(t, []byte{77, 77, 77, 77}, out[0].Data)
}

func TestPlugin_SetupErrors(t *testing.T) {
	p := New()
	_, err := p.Setup(4, 4, "rgba", ports.Options{"kernel": "lanczos"})
	assert.Error(t, err)

	_, err = p.Setup(4, 4, "rgba", ports.Options{"w": int64(-2)})
	assert.Error(t, err)
}
