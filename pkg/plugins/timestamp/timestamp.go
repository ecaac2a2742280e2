// Package timestamp burns the presentation time into rgba frames.
package timestamp

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/fogleman/gg"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/plugin"
	"github.com/user/framehost/pkg/ports"
)

// Name is the registry name of the plugin.
const Name = "timestamp"

func init() {
	plugin.Register(Name, func() ports.Plugin { return New() })
}

// Plugin draws "pts" text in a box at the top-left corner.
type Plugin struct{}

// New creates the plugin.
func New() *Plugin {
	return &Plugin{}
}

type processor struct {
	fontPath string
	fontSize float64
	color    color.Color
}

func (p *Plugin) QueryFormats() ([]string, error) {
	return []string{"rgba"}, nil
}

// Setup recognizes "font" (TrueType path, default gg's built-in face),
// "size" (points, default 12) and "color" ("white" or "black").
func (p *Plugin) Setup(width, height int, pixfmt string, opts ports.Options) (ports.SetupResult, error) {
	size, err := opts.Float("size", 12)
	if err != nil {
		return ports.SetupResult{}, err
	}
	var col color.Color = color.White
	switch c := opts.String("color", "white"); c {
	case "white":
	case "black":
		col = color.Black
	default:
		return ports.SetupResult{}, fmt.Errorf("unknown color %q", c)
	}

	proc := &processor{fontPath: opts.String("font", ""), fontSize: size, color: col}
	if proc.fontPath != "" {
		if _, err := gg.LoadFontFace(proc.fontPath, size); err != nil {
			return ports.SetupResult{}, fmt.Errorf("load font: %w", err)
		}
	}

	return ports.SetupResult{
		Config: ports.PluginConfig{
			FrameRatio:  1,
			ProcessMode: plugin.OneToOne.String(),
		},
		Processor: proc,
	}, nil
}

// Label formats a pts in microseconds as seconds with millisecond precision.
func Label(pts int64) string {
	d := time.Duration(pts) * time.Microsecond
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func (p *Plugin) ProcessFrame(in *frame.Frame, proc ports.Processor) ([]*frame.Frame, error) {
	pr, ok := proc.(*processor)
	if !ok {
		return nil, fmt.Errorf("unexpected processor %T", proc)
	}
	src, err := frame.ToImage(in)
	if err != nil {
		return nil, err
	}
	rgba, ok := src.(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("unexpected image type %T", src)
	}

	dc := gg.NewContextForRGBA(rgba)
	if pr.fontPath != "" {
		if err := dc.LoadFontFace(pr.fontPath, pr.fontSize); err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
	}

	text := Label(in.PTS)
	tw, th := dc.MeasureString(text)
	pad := 2.0
	if pr.color == color.White {
		dc.SetColor(color.RGBA{A: 160})
	} else {
		dc.SetColor(color.RGBA{R: 255, G: 255, B: 255, A: 160})
	}
	dc.DrawRectangle(0, 0, tw+2*pad, th+2*pad)
	dc.Fill()

	dc.SetColor(pr.color)
	dc.DrawStringAnchored(text, pad, pad+th/2, 0, 0.5)

	return []*frame.Frame{in}, nil
}

func (p *Plugin) FlushFrames(proc ports.Processor) ([]*frame.Frame, error) {
	return nil, nil
}

var _ ports.Plugin = (*Plugin)(nil)
