package stage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/metrics"
	"github.com/user/framehost/pkg/mocks"
	"github.com/user/framehost/pkg/negotiate"
	"github.com/user/framehost/pkg/plugin"
	"github.com/user/framehost/pkg/plugins/delay"
	"github.com/user/framehost/pkg/plugins/framerate2x"
	"github.com/user/framehost/pkg/ports"
)

func grayInfo(opts ports.Options) StreamInfo {
	return StreamInfo{Width: 4, Height: 4, Formats: []string{"gray"}, Options: opts}
}

func openStage(t *testing.T, p ports.Plugin, info StreamInfo, opts Options) (*Stage, *mocks.Downstream) {
	t.Helper()
	down := &mocks.Downstream{}
	s := New(p, down, opts)
	_, err := s.Open(context.Background(), info)
	require.NoError(t, err)
	return s, down
}

func feed(t *testing.T, s *Stage, pixfmt string, pts ...int64) {
	t.Helper()
	for _, p := range pts {
		require.NoError(t, s.Process(context.Background(), frame.New(4, 4, pixfmt, p, nil)))
	}
}

func TestStage_OneToManyForwardsInOrder(t *testing.T) {
	s, down := openStage(t, framerate2x.New(),
		StreamInfo{Width: 4, Height: 4, Formats: []string{"yuv420p", "rgb24"}}, Options{Logger: mocks.NewLogger()})

	assert.Equal(t, plugin.OneToMany, s.Config().ProcessMode)
	assert.Equal(t, "yuv420p", s.Config().PixelFormat)
	assert.Equal(t, "yuv420p", s.InputFormat())

	feed(t, s, "yuv420p", 0, 40000, 80000)

	assert.Equal(t, []int64{0, 10, 40000, 40010, 80000, 80010}, down.PTS())
	assert.Equal(t, int64(3), s.Stats().FramesIn)
	assert.Equal(t, int64(6), s.Stats().FramesOut)
}

func TestStage_DelayBuffersAndFlushes(t *testing.T) {
	const depth = 3
	s, down := openStage(t, delay.New().WithFormats("gray"), grayInfo(ports.Options{"depth": int64(depth)}), Options{Logger: mocks.NewLogger()})

	feed(t, s, "gray", 0)
	assert.Empty(t, down.Frames)
	feed(t, s, "gray", 1)
	assert.Empty(t, down.Frames)

	feed(t, s, "gray", 2)
	assert.Equal(t, []int64{0}, down.PTS())

	feed(t, s, "gray", 3, 4)
	assert.Equal(t, []int64{0, 1, 2}, down.PTS())

	flushed, err := s.EndOfStream(context.Background())
	require.NoError(t, err)
	require.Len(t, flushed, depth-1)
	assert.Equal(t, int64(3), flushed[0].PTS)
	assert.Equal(t, int64(4), flushed[1].PTS)

	assert.Equal(t, []int64{0, 1, 2, 3, 4}, down.PTS())
	assert.Equal(t, Closed, s.State())
	assert.Equal(t, int64(2), s.Stats().Flushed)
}

func TestStage_FlushIdempotent(t *testing.T) {
	p := &mocks.Plugin{
		Formats: []string{"gray"},
		FlushFramesFunc: func(ports.Processor) ([]*frame.Frame, error) {
			return []*frame.Frame{frame.New(4, 4, "gray", 9, nil)}, nil
		},
	}
	log := mocks.NewLogger()
	s, down := openStage(t, p, grayInfo(nil), Options{Logger: log})

	first, err := s.EndOfStream(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := s.EndOfStream(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)

	assert.Equal(t, 1, p.FlushCalls)
	assert.Len(t, down.Frames, 1)
	assert.Len(t, log.Entries(ports.LevelWarn), 1)
}

func TestStage_IgnoredEndOfStreamNamesStream(t *testing.T) {
	log := mocks.NewLogger()
	fc := NewFlushCoordinator()
	s, _ := openStage(t, &mocks.Plugin{Formats: []string{"gray"}}, grayInfo(nil),
		Options{Logger: log, Stream: "cam-7", Flusher: fc})

	_, err := fc.Drain(context.Background(), s)
	require.NoError(t, err)
	_, err = fc.Drain(context.Background(), s)
	require.NoError(t, err)

	warns := log.Entries(ports.LevelWarn)
	require.Len(t, warns, 1)
	assert.Equal(t, "flush", warns[0].Component)
	assert.Equal(t, "cam-7", warns[0].Fields["stream"])
}

func TestStage_OrderingIsEmissionOrder(t *testing.T) {
	// The plugin reverses pairs; the stage must not resequence them.
	var held *frame.Frame
	p := &mocks.Plugin{
		Formats: []string{"gray"},
		Config:  ports.PluginConfig{ProcessMode: "many_to_one"},
		ProcessFrameFunc: func(in *frame.Frame, _ ports.Processor) ([]*frame.Frame, error) {
			if held == nil {
				held = in
				return nil, nil
			}
			out := []*frame.Frame{in, held}
			held = nil
			return out, nil
		},
		FlushFramesFunc: func(ports.Processor) ([]*frame.Frame, error) {
			if held == nil {
				return nil, nil
			}
			return []*frame.Frame{held}, nil
		},
	}
	s, down := openStage(t, p, grayInfo(nil), Options{Logger: mocks.NewLogger()})

	var expected []int64
	for _, pts := range []int64{0, 1, 2, 3, 4} {
		before := len(down.Frames)
		feed(t, s, "gray", pts)
		for _, f := range down.Frames[before:] {
			expected = append(expected, f.PTS)
		}
	}
	flushed, err := s.EndOfStream(context.Background())
	require.NoError(t, err)
	for _, f := range flushed {
		expected = append(expected, f.PTS)
	}

	assert.Equal(t, []int64{1, 0, 3, 2, 4}, down.PTS())
	assert.Equal(t, expected, down.PTS())
	assert.Equal(t, int64(2), s.Stats().Reordered)
}

func TestStage_NegotiationFailureCloses(t *testing.T) {
	p := &mocks.Plugin{Formats: []string{"yuv422p", "yuv420p"}}
	s := New(p, &mocks.Downstream{}, Options{Logger: mocks.NewLogger()})

	_, err := s.Open(context.Background(), StreamInfo{Width: 4, Height: 4, Formats: []string{"rgba"}})
	assert.ErrorIs(t, err, negotiate.ErrNoCompatibleFormat)
	assert.Equal(t, Closed, s.State())
	assert.Empty(t, p.SetupCalls)

	err = s.Process(context.Background(), frame.New(4, 4, "rgba", 0, nil))
	assert.ErrorIs(t, err, ErrStageClosed)

	out, err := s.EndOfStream(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestStage_RejectsHardwareFormats(t *testing.T) {
	p := &mocks.Plugin{Formats: []string{"vaapi", "h264"}}
	s := New(p, &mocks.Downstream{}, Options{Logger: mocks.NewLogger()})

	_, err := s.Open(context.Background(), StreamInfo{Width: 4, Height: 4, Formats: []string{"vaapi"}})
	assert.ErrorIs(t, err, negotiate.ErrNoCompatibleFormat)
	assert.Equal(t, Closed, s.State())
	assert.Empty(t, p.SetupCalls)
	assert.Empty(t, s.InputFormat())
}

func TestStage_NilFrameRejected(t *testing.T) {
	p := &mocks.Plugin{Formats: []string{"gray"}}
	s, down := openStage(t, p, grayInfo(nil), Options{Logger: mocks.NewLogger()})

	assert.ErrorIs(t, s.Process(context.Background(), nil), ErrNilFrame)
	assert.Equal(t, Ready, s.State())
	assert.Empty(t, p.ProcessedPTS)

	feed(t, s, "gray", 0)
	assert.Equal(t, []int64{0}, down.PTS())
}

func TestStage_SetupFaultCloses(t *testing.T) {
	p := &mocks.Plugin{
		Formats: []string{"gray"},
		SetupFunc: func(int, int, string, ports.Options) (ports.SetupResult, error) {
			return ports.SetupResult{}, errors.New("bad option")
		},
	}
	s := New(p, &mocks.Downstream{}, Options{Logger: mocks.NewLogger()})

	_, err := s.Open(context.Background(), grayInfo(nil))
	assert.ErrorIs(t, err, plugin.ErrPluginFault)
	assert.Equal(t, Closed, s.State())
}

func TestStage_InvalidTransitions(t *testing.T) {
	s := New(&mocks.Plugin{Formats: []string{"gray"}}, &mocks.Downstream{}, Options{Logger: mocks.NewLogger()})

	err := s.Process(context.Background(), frame.New(4, 4, "gray", 0, nil))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.EndOfStream(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Open(context.Background(), grayInfo(nil))
	require.NoError(t, err)
	assert.Equal(t, Ready, s.State())

	_, err = s.Open(context.Background(), grayInfo(nil))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStage_EndOfStreamFromReady(t *testing.T) {
	p := &mocks.Plugin{Formats: []string{"gray"}}
	s, _ := openStage(t, p, grayInfo(nil), Options{Logger: mocks.NewLogger()})

	out, err := s.EndOfStream(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, p.FlushCalls)
	assert.Equal(t, Closed, s.State())
}

func TestStage_ArityWarningIsNotFatal(t *testing.T) {
	log := mocks.NewLogger()
	p := &mocks.Plugin{
		Formats: []string{"gray"},
		ProcessFrameFunc: func(in *frame.Frame, _ ports.Processor) ([]*frame.Frame, error) {
			if in.PTS == 1 {
				return nil, nil
			}
			return []*frame.Frame{in}, nil
		},
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s, down := openStage(t, p, grayInfo(nil), Options{Name: "dropper", Logger: log, Metrics: m})

	feed(t, s, "gray", 0, 1, 2)

	assert.Equal(t, []int64{0, 2}, down.PTS())
	assert.Equal(t, int64(1), s.Stats().ArityWarnings)
	assert.Equal(t, Processing, s.State())
	require.Len(t, log.Entries(ports.LevelWarn), 1)
	assert.Contains(t, log.Entries(ports.LevelWarn)[0].Message, "one_to_one")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArityWarnings.WithLabelValues("dropper")))
}

func TestStage_ManyArityUnchecked(t *testing.T) {
	log := mocks.NewLogger()
	p := &mocks.Plugin{
		Formats: []string{"gray"},
		Config:  ports.PluginConfig{ProcessMode: "one_to_many"},
		ProcessFrameFunc: func(*frame.Frame, ports.Processor) ([]*frame.Frame, error) {
			return nil, nil
		},
	}
	s, _ := openStage(t, p, grayInfo(nil), Options{Logger: log})

	feed(t, s, "gray", 0, 1)
	assert.Equal(t, int64(0), s.Stats().ArityWarnings)
	assert.Empty(t, log.Entries(ports.LevelWarn))
}

func TestStage_ProcessFaultCloses(t *testing.T) {
	p := &mocks.Plugin{
		Formats: []string{"gray"},
		ProcessFrameFunc: func(*frame.Frame, ports.Processor) ([]*frame.Frame, error) {
			return nil, errors.New("broken")
		},
	}
	s, _ := openStage(t, p, grayInfo(nil), Options{Logger: mocks.NewLogger()})

	err := s.Process(context.Background(), frame.New(4, 4, "gray", 0, nil))
	assert.ErrorIs(t, err, plugin.ErrPluginFault)
	assert.Equal(t, Closed, s.State())

	out, err := s.EndOfStream(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, p.FlushCalls)
}

func TestStage_FlushFaultCloses(t *testing.T) {
	p := &mocks.Plugin{
		Formats: []string{"gray"},
		FlushFramesFunc: func(ports.Processor) ([]*frame.Frame, error) {
			return nil, errors.New("broken")
		},
	}
	s, _ := openStage(t, p, grayInfo(nil), Options{Logger: mocks.NewLogger()})

	_, err := s.EndOfStream(context.Background())
	assert.ErrorIs(t, err, plugin.ErrPluginFault)
	assert.Equal(t, Closed, s.State())

	_, err = s.EndOfStream(context.Background())
	assert.NoError(t, err)
}

func TestStage_BackpressureBlocksUntilAbort(t *testing.T) {
	entered := make(chan struct{})
	down := &mocks.Downstream{
		SendFunc: func(ctx context.Context, f *frame.Frame) error {
			close(entered)
			<-ctx.Done()
			return ctx.Err()
		},
	}
	p := &mocks.Plugin{Formats: []string{"gray"}}
	s := New(p, down, Options{Logger: mocks.NewLogger()})
	_, err := s.Open(context.Background(), grayInfo(nil))
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		errc <- s.Process(context.Background(), frame.New(4, 4, "gray", 0, nil))
	}()

	<-entered
	s.Abort(nil)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrAborted)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked forward was not released by abort")
	}

	assert.Equal(t, Closed, s.State())
	assert.Equal(t, 0, p.FlushCalls)

	out, err := s.EndOfStream(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, p.FlushCalls)
}

func TestStage_AbortDropsBufferedFrames(t *testing.T) {
	s, down := openStage(t, delay.New().WithFormats("gray"), grayInfo(ports.Options{"depth": int64(5)}), Options{Logger: mocks.NewLogger()})
	feed(t, s, "gray", 0, 1, 2)

	s.Abort(errors.New("operator stop"))
	assert.Equal(t, Closed, s.State())

	out, err := s.EndOfStream(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, down.Frames)

	err = s.Process(context.Background(), frame.New(4, 4, "gray", 3, nil))
	assert.ErrorIs(t, err, ErrStageClosed)

	s.Abort(nil)
	assert.Equal(t, Closed, s.State())
}

func TestStage_ContextCancelDuringForward(t *testing.T) {
	down := &mocks.Downstream{
		SendFunc: func(ctx context.Context, f *frame.Frame) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	p := &mocks.Plugin{Formats: []string{"gray"}}
	s := New(p, down, Options{Logger: mocks.NewLogger()})
	_, err := s.Open(context.Background(), grayInfo(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = s.Process(ctx, frame.New(4, 4, "gray", 0, nil))
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, Closed, s.State())
	assert.Equal(t, 0, p.FlushCalls)
}

func TestStage_DownstreamErrorCloses(t *testing.T) {
	down := &mocks.Downstream{
		SendFunc: func(context.Context, *frame.Frame) error { return errors.New("disk full") },
	}
	s := New(&mocks.Plugin{Formats: []string{"gray"}}, down, Options{Logger: mocks.NewLogger()})
	_, err := s.Open(context.Background(), grayInfo(nil))
	require.NoError(t, err)

	err = s.Process(context.Background(), frame.New(4, 4, "gray", 0, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, Closed, s.State())
}

func TestStage_AppliesClonePolicy(t *testing.T) {
	var seen frame.ClonePolicy = -1
	p := &mocks.Plugin{
		Formats: []string{"gray"},
		ProcessFrameFunc: func(in *frame.Frame, _ ports.Processor) ([]*frame.Frame, error) {
			seen = in.Policy
			return []*frame.Frame{in.Clone()}, nil
		},
	}
	s, down := openStage(t, p, grayInfo(nil), Options{Logger: mocks.NewLogger(), ClonePolicy: frame.CloneShare})

	in := frame.New(4, 4, "gray", 0, make([]byte, 16))
	require.NoError(t, s.Process(context.Background(), in))

	assert.Equal(t, frame.CloneShare, seen)
	require.Len(t, down.Frames, 1)
	assert.Same(t, &in.Data[0], &down.Frames[0].Data[0])
}

func TestStage_DebugSink(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	s, _ := openStage(t, framerate2x.New(),
		StreamInfo{Width: 4, Height: 4, Formats: []string{"yuv422p"}},
		Options{Logger: mocks.NewLogger(), Stream: "s1", Debug: sink})

	feed(t, s, "yuv422p", 0)

	assert.Contains(t, string(sink.StageConfigs["s1"]), `"process_mode": "one_to_many"`)
	assert.Len(t, sink.InputFrames["s1"], 1)
	assert.Len(t, sink.OutputFrames["s1"], 2)
}

func TestStage_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s, _ := openStage(t, framerate2x.New(),
		StreamInfo{Width: 4, Height: 4, Formats: []string{"yuv420p"}},
		Options{Logger: mocks.NewLogger(), Name: framerate2x.Name, Metrics: m})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveStages))
	feed(t, s, "yuv420p", 0, 1)
	_, err := s.EndOfStream(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesIn.WithLabelValues(framerate2x.Name)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.FramesOut.WithLabelValues(framerate2x.Name)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveStages))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StagesClosed.WithLabelValues(framerate2x.Name, "eos")))
}

func TestStage_SharedFlushCoordinator(t *testing.T) {
	fc := NewFlushCoordinator()
	a, downA := openStage(t, delay.New().WithFormats("gray"), grayInfo(ports.Options{"depth": int64(2)}), Options{Logger: mocks.NewLogger(), Flusher: fc})
	b, downB := openStage(t, delay.New().WithFormats("gray"), grayInfo(ports.Options{"depth": int64(2)}), Options{Logger: mocks.NewLogger(), Flusher: fc})

	feed(t, a, "gray", 0)
	feed(t, b, "gray", 100, 101)

	_, err := fc.Drain(context.Background(), a)
	require.NoError(t, err)
	_, err = fc.Drain(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, []int64{0}, downA.PTS())
	assert.Equal(t, []int64{100, 101}, downB.PTS())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "flushing", Flushing.String())
	assert.True(t, Closed.Terminal())
	assert.False(t, Processing.Terminal())
}
