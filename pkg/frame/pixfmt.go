package frame

// PixelFormatInfo describes the memory layout of a pixel format tag.
type PixelFormatInfo struct {
	Name string

	// Planes lists, per plane, the bytes per pixel and the log2 chroma
	// subsampling applied to that plane.
	Planes []PlaneInfo

	// Bitstream marks compressed formats; HWAccel marks opaque hardware
	// surfaces. Neither can be handed to a plugin.
	Bitstream bool
	HWAccel   bool
}

// PlaneInfo describes one plane of a pixel format.
type PlaneInfo struct {
	BytesPerPixel int
	ShiftW        uint // log2 horizontal subsampling
	ShiftH        uint // log2 vertical subsampling
}

var pixelFormats = map[string]PixelFormatInfo{}

func register(info PixelFormatInfo) {
	pixelFormats[info.Name] = info
}

func init() {
	full := PlaneInfo{BytesPerPixel: 1}
	quarter := PlaneInfo{BytesPerPixel: 1, ShiftW: 1, ShiftH: 1}
	half := PlaneInfo{BytesPerPixel: 1, ShiftW: 1}

	register(PixelFormatInfo{Name: "yuv420p", Planes: []PlaneInfo{full, quarter, quarter}})
	register(PixelFormatInfo{Name: "yuv422p", Planes: []PlaneInfo{full, half, half}})
	register(PixelFormatInfo{Name: "yuv444p", Planes: []PlaneInfo{full, full, full}})
	register(PixelFormatInfo{Name: "yuva420p", Planes: []PlaneInfo{full, quarter, quarter, full}})
	register(PixelFormatInfo{Name: "nv12", Planes: []PlaneInfo{full, {BytesPerPixel: 2, ShiftW: 1, ShiftH: 1}}})
	register(PixelFormatInfo{Name: "gray", Planes: []PlaneInfo{full}})
	register(PixelFormatInfo{Name: "rgb24", Planes: []PlaneInfo{{BytesPerPixel: 3}}})
	register(PixelFormatInfo{Name: "bgr24", Planes: []PlaneInfo{{BytesPerPixel: 3}}})
	register(PixelFormatInfo{Name: "rgba", Planes: []PlaneInfo{{BytesPerPixel: 4}}})
	register(PixelFormatInfo{Name: "bgra", Planes: []PlaneInfo{{BytesPerPixel: 4}}})

	for _, name := range []string{"vaapi", "cuda", "videotoolbox", "qsv", "d3d11"} {
		register(PixelFormatInfo{Name: name, HWAccel: true})
	}
	for _, name := range []string{"h264", "hevc", "av1", "mjpeg"} {
		register(PixelFormatInfo{Name: name, Bitstream: true})
	}
}

// LookupPixelFormat returns the layout of a known pixel format tag.
func LookupPixelFormat(name string) (PixelFormatInfo, bool) {
	info, ok := pixelFormats[name]
	return info, ok
}

// Processable reports whether frames of this format can be given to a plugin.
func (p PixelFormatInfo) Processable() bool {
	return !p.Bitstream && !p.HWAccel
}

// PlaneSize returns the byte size of plane i for the given dimensions.
func (p PixelFormatInfo) PlaneSize(i, width, height int) int {
	pl := p.Planes[i]
	w := ceilShift(width, pl.ShiftW)
	h := ceilShift(height, pl.ShiftH)
	return w * h * pl.BytesPerPixel
}

// FrameSize returns the packed payload size for the given dimensions.
func (p PixelFormatInfo) FrameSize(width, height int) int {
	size := 0
	for i := range p.Planes {
		size += p.PlaneSize(i, width, height)
	}
	return size
}

func ceilShift(v int, shift uint) int {
	return (v + (1 << shift) - 1) >> shift
}
