package framerate2x

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/plugin"
	"github.com/user/framehost/pkg/ports"
)

func TestPlugin_DuplicatesWithStep(t *testing.T) {
	p := New()
	res, err := p.Setup(4, 2, "yuv420p", ports.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Config.FrameRatio)
	assert.Equal(t, "one_to_many", res.Config.ProcessMode)

	in := frame.New(4, 2, "yuv420p", 1000, make([]byte, 12))
	out, err := p.ProcessFrame(in, res.Processor)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Same(t, in, out[0])
	assert.Equal(t, int64(1000), out[0].PTS)
	assert.Equal(t, int64(1010), out[1].PTS)
	assert.NotSame(t, out[0], out[1])
}

func TestPlugin_CustomStep(t *testing.T) {
	p := New()
	res, err := p.Setup(4, 2, "yuv420p", ports.Options{"step": int64(20000)})
	require.NoError(t, err)

	out, err := p.ProcessFrame(frame.New(4, 2, "yuv420p", 0, nil), res.Processor)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), out[1].PTS)
}

func TestPlugin_Registered(t *testing.T) {
	p, err := plugin.Default.New(Name)
	require.NoError(t, err)
	assert.IsType(t, &Plugin{}, p)
}
