package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned when a pixel format has no image.Image
// representation.
var ErrUnsupportedFormat = errors.New("pixel format has no image representation")

var subsampleRatios = map[string]image.YCbCrSubsampleRatio{
	"yuv420p":  image.YCbCrSubsampleRatio420,
	"yuva420p": image.YCbCrSubsampleRatio420,
	"yuv422p":  image.YCbCrSubsampleRatio422,
	"yuv444p":  image.YCbCrSubsampleRatio444,
}

// ImageFormats lists the pixel formats ToImage and FromImage handle.
var ImageFormats = []string{"rgba", "gray", "yuv420p", "yuv422p", "yuv444p", "yuva420p"}

// ToImage wraps the payload of f as an image.Image without copying.
// Writes to the image write through to f.Data.
func ToImage(f *Frame) (image.Image, error) {
	info, ok := LookupPixelFormat(f.PixelFormat)
	if !ok || !info.Processable() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.PixelFormat)
	}
	if need := info.FrameSize(f.Width, f.Height); len(f.Data) < need {
		return nil, fmt.Errorf("frame payload is %d bytes, %s %dx%d needs %d",
			len(f.Data), f.PixelFormat, f.Width, f.Height, need)
	}
	rect := image.Rect(0, 0, f.Width, f.Height)

	switch f.PixelFormat {
	case "rgba":
		return &image.RGBA{Pix: f.Data, Stride: 4 * f.Width, Rect: rect}, nil
	case "gray":
		return &image.Gray{Pix: f.Data, Stride: f.Width, Rect: rect}, nil
	}

	ratio, ok := subsampleRatios[f.PixelFormat]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.PixelFormat)
	}
	ySize := info.PlaneSize(0, f.Width, f.Height)
	cSize := info.PlaneSize(1, f.Width, f.Height)
	ycc := image.YCbCr{
		Y:              f.Data[:ySize],
		Cb:             f.Data[ySize : ySize+cSize],
		Cr:             f.Data[ySize+cSize : ySize+2*cSize],
		YStride:        f.Width,
		CStride:        ceilShift(f.Width, info.Planes[1].ShiftW),
		SubsampleRatio: ratio,
		Rect:           rect,
	}
	if f.PixelFormat == "yuva420p" {
		off := ySize + 2*cSize
		return &image.NYCbCrA{
			YCbCr:   ycc,
			A:       f.Data[off : off+info.PlaneSize(3, f.Width, f.Height)],
			AStride: f.Width,
		}, nil
	}
	return &ycc, nil
}

// FromImage converts img into a new frame of the given pixel format.
func FromImage(img image.Image, pixfmt string, pts int64) (*Frame, error) {
	info, ok := LookupPixelFormat(pixfmt)
	if !ok || !info.Processable() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, pixfmt)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	f := New(w, h, pixfmt, pts, make([]byte, info.FrameSize(w, h)))

	dst, err := ToImage(f)
	if err != nil {
		return nil, err
	}

	switch d := dst.(type) {
	case *image.RGBA:
		draw.Draw(d, d.Rect, img, b.Min, draw.Src)
	case *image.Gray:
		draw.Draw(d, d.Rect, img, b.Min, draw.Src)
	case *image.YCbCr:
		fillYCbCr(d, img, nil, 0)
	case *image.NYCbCrA:
		fillYCbCr(&d.YCbCr, img, d.A, d.AStride)
	}
	return f, nil
}

// fillYCbCr converts img pixel by pixel. Chroma is sampled at the top-left
// pixel of each subsampled block.
func fillYCbCr(dst *image.YCbCr, img image.Image, alpha []byte, aStride int) {
	b := img.Bounds()
	for y := 0; y < dst.Rect.Dy(); y++ {
		for x := 0; x < dst.Rect.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			yy, cb, cr := color.RGBToYCbCr(c.R, c.G, c.B)
			dst.Y[dst.YOffset(x, y)] = yy
			ci := dst.COffset(x, y)
			if isBlockOrigin(dst.SubsampleRatio, x, y) {
				dst.Cb[ci] = cb
				dst.Cr[ci] = cr
			}
			if alpha != nil {
				alpha[y*aStride+x] = c.A
			}
		}
	}
}

func isBlockOrigin(ratio image.YCbCrSubsampleRatio, x, y int) bool {
	switch ratio {
	case image.YCbCrSubsampleRatio420:
		return x%2 == 0 && y%2 == 0
	case image.YCbCrSubsampleRatio422:
		return x%2 == 0
	default:
		return true
	}
}
