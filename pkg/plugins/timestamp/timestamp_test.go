package timestamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

func TestLabel(t *testing.T) {
	assert.Equal(t, "0.000s", Label(0))
	assert.Equal(t, "1.500s", Label(1500000))
	assert.Equal(t, "0.040s", Label(40000))
}

func TestPlugin_DrawsInPlace(t *testing.T) {
	p := New()
	res, err := p.Setup(64, 32, "rgba", ports.Options{})
	require.NoError(t, err)
	assert.Equal(t, "one_to_one", res.Config.ProcessMode)

	in := frame.New(64, 32, "rgba", 1000000, make([]byte, 64*32*4))
	out, err := p.ProcessFrame(in, res.Processor)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Same(t, in, out[0])

	painted := false
	for _, b := range in.Data {
		if b != 0 {
			painted = true
			break
		}
	}
	assert.True(t, painted)
}

func TestPlugin_SetupErrors(t *testing.T) {
	p := New()
	_, err := p.Setup(8, 8, "rgba", ports.Options{"color": "purple"})
	assert.Error(t, err)

	_, err = p.Setup(8, 8, "rgba", ports.Options{"font": "/nonexistent/font.ttf"})
	assert.Error(t, err)
}
