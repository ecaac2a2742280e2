package rawmp4

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

type sample struct {
	pts  int64
	data []byte
}

// Reader is a FrameSource replaying a file written by Writer.
type Reader struct {
	width     int
	height    int
	pixfmt    string
	frameRate frame.Rational
	samples   []sample
	next      int
}

// Open reads and parses path.
func Open(fs ports.FileSystem, path string) (*Reader, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses an in-memory file.
func Parse(data []byte) (*Reader, error) {
	file, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if !file.IsFragmented() || file.Init == nil || file.Init.Moov == nil {
		return nil, fmt.Errorf("not a fragmented mp4")
	}

	r := &Reader{}
	var trackID uint32
	timescale := uint32(Timescale)
	for _, trak := range file.Init.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		pixfmt, ok := pixelFormatFromHandler(trak.Mdia.Hdlr.Name)
		if !ok {
			continue
		}
		trackID = trak.Tkhd.TrackID
		r.pixfmt = pixfmt
		r.width = int(uint32(trak.Tkhd.Width) >> 16)
		r.height = int(uint32(trak.Tkhd.Height) >> 16)
		if trak.Mdia.Mdhd != nil {
			timescale = trak.Mdia.Mdhd.Timescale
		}
		break
	}
	if trackID == 0 {
		return nil, fmt.Errorf("no raw video track found")
	}

	var trex *mp4.TrexBox
	if file.Init.Moov.Mvex != nil {
		for _, t := range file.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	tb := frame.Rational{Num: 1, Den: int64(timescale)}
	var totalDur uint64
	for _, seg := range file.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != trackID {
					continue
				}
				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, fmt.Errorf("get samples: %w", err)
				}
				for _, s := range samples {
					r.samples = append(r.samples, sample{
						pts:  frame.Rescale(int64(s.DecodeTime), tb, frame.TimeBaseMicros),
						data: s.Data,
					})
					totalDur += uint64(s.Dur)
				}
			}
		}
	}

	r.frameRate = frame.Rational{Num: 25, Den: 1}
	if n := len(r.samples); n > 0 && totalDur > 0 {
		r.frameRate = frame.Rational{Num: int64(n) * int64(timescale), Den: int64(totalDur)}.Mul(1)
	}
	return r, nil
}

// Len returns the number of frames in the file.
func (r *Reader) Len() int {
	return len(r.samples)
}

// Info describes the stored stream. The only candidate format is the
// stored one.
func (r *Reader) Info() ports.SourceInfo {
	return ports.SourceInfo{
		Width:     r.width,
		Height:    r.height,
		Formats:   []string{r.pixfmt},
		TimeBase:  frame.TimeBaseMicros,
		FrameRate: r.frameRate,
	}
}

// Configure accepts only the stored pixel format.
func (r *Reader) Configure(pixfmt string) error {
	if pixfmt != r.pixfmt {
		return fmt.Errorf("raw mp4 holds %s, cannot produce %s", r.pixfmt, pixfmt)
	}
	return nil
}

// Next returns the next stored frame.
func (r *Reader) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.next >= len(r.samples) {
		return nil, io.EOF
	}
	s := r.samples[r.next]
	r.next++
	return frame.New(r.width, r.height, r.pixfmt, s.pts, s.data), nil
}

// Close drops the parsed samples.
func (r *Reader) Close() error {
	r.samples = nil
	r.next = 0
	return nil
}

var _ ports.FrameSource = (*Reader)(nil)
