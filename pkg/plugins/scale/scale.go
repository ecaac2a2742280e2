// Package scale resamples frames to a fixed size.
package scale

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/plugin"
	"github.com/user/framehost/pkg/ports"
)

// Name is the registry name of the plugin.
const Name = "scale"

func init() {
	plugin.Register(Name, func() ports.Plugin { return New() })
}

// Plugin scales every frame with the configured kernel. Output geometry
// is declared in the stage config; pixel format is unchanged.
type Plugin struct{}

// New creates the plugin.
func New() *Plugin {
	return &Plugin{}
}

type processor struct {
	width, height int
	kernel        draw.Scaler
}

// Kernel returns the scaler registered under name.
func Kernel(name string) (draw.Scaler, error) {
	switch name {
	case "nearest":
		return draw.NearestNeighbor, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "", "catmullrom":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown kernel %q", name)
	}
}

func (p *Plugin) QueryFormats() ([]string, error) {
	return []string{"rgba", "gray"}, nil
}

// Setup recognizes "w" and "h" (default: input size) and "kernel"
// (nearest, bilinear, catmullrom; default catmullrom).
func (p *Plugin) Setup(width, height int, pixfmt string, opts ports.Options) (ports.SetupResult, error) {
	w, err := opts.Int("w", width)
	if err != nil {
		return ports.SetupResult{}, err
	}
	h, err := opts.Int("h", height)
	if err != nil {
		return ports.SetupResult{}, err
	}
	if w <= 0 || h <= 0 {
		return ports.SetupResult{}, fmt.Errorf("invalid target size %dx%d", w, h)
	}
	kernel, err := Kernel(opts.String("kernel", ""))
	if err != nil {
		return ports.SetupResult{}, err
	}
	return ports.SetupResult{
		Config: ports.PluginConfig{
			Width:       w,
			Height:      h,
			PixelFormat: pixfmt,
			FrameRatio:  1,
			ProcessMode: plugin.OneToOne.String(),
		},
		Processor: &processor{width: w, height: h, kernel: kernel},
	}, nil
}

func (p *Plugin) ProcessFrame(in *frame.Frame, proc ports.Processor) ([]*frame.Frame, error) {
	pr, ok := proc.(*processor)
	if !ok {
		return nil, fmt.Errorf("unexpected processor %T", proc)
	}
	if in.Width == pr.width && in.Height == pr.height {
		return []*frame.Frame{in}, nil
	}

	src, err := frame.ToImage(in)
	if err != nil {
		return nil, err
	}
	var dst draw.Image
	rect := image.Rect(0, 0, pr.width, pr.height)
	switch in.PixelFormat {
	case "gray":
		dst = image.NewGray(rect)
	default:
		dst = image.NewRGBA(rect)
	}
	pr.kernel.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)

	out, err := frame.FromImage(dst, in.PixelFormat, in.PTS)
	if err != nil {
		return nil, err
	}
	out.DTS = in.DTS
	out.TimeBase = in.TimeBase
	out.ColorRange = in.ColorRange
	out.Policy = in.Policy
	return []*frame.Frame{out}, nil
}

func (p *Plugin) FlushFrames(proc ports.Processor) ([]*frame.Frame, error) {
	return nil, nil
}

var _ ports.Plugin = (*Plugin)(nil)
