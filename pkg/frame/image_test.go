package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestFromImage_Sizes(t *testing.T) {
	src := solid(5, 3, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	for _, pixfmt := range ImageFormats {
		t.Run(pixfmt, func(t *testing.T) {
			f, err := FromImage(src, pixfmt, 42)
			require.NoError(t, err)

			info, _ := LookupPixelFormat(pixfmt)
			assert.Len(t, f.Data, info.FrameSize(5, 3))
			assert.Equal(t, int64(42), f.PTS)
			assert.Equal(t, 5, f.Width)
			assert.Equal(t, 3, f.Height)

			img, err := ToImage(f)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 5, 3), img.Bounds())
		})
	}
}

func TestFromImage_RGBARoundTrip(t *testing.T) {
	c := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
	f, err := FromImage(solid(2, 2, c), "rgba", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30, 255}, f.Data[:4])

	img, err := ToImage(f)
	require.NoError(t, err)
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(10), r>>8)
	assert.Equal(t, uint32(20), g>>8)
	assert.Equal(t, uint32(30), b>>8)
}

func TestFromImage_YUVAKeepsAlpha(t *testing.T) {
	f, err := FromImage(solid(2, 2, color.NRGBA{R: 255, A: 128}), "yuva420p", 0)
	require.NoError(t, err)

	info, _ := LookupPixelFormat("yuva420p")
	alphaStart := info.FrameSize(2, 2) - info.PlaneSize(3, 2, 2)
	assert.Equal(t, []byte{128, 128, 128, 128}, f.Data[alphaStart:])
}

func TestToImage_Errors(t *testing.T) {
	_, err := ToImage(New(2, 2, "nv12", 0, make([]byte, 6)))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ToImage(New(2, 2, "rgba", 0, make([]byte, 3)))
	assert.Error(t, err)

	_, err = FromImage(solid(1, 1, color.NRGBA{}), "cuda", 0)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
