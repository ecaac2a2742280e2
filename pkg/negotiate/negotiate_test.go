package negotiate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framehost/pkg/mocks"
	"github.com/user/framehost/pkg/ports"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		supported  []string
		want       string
		wantErr    bool
	}{
		{
			name:       "candidate order wins",
			candidates: []string{"yuv420p", "rgb24"},
			supported:  []string{"yuv422p", "yuv420p"},
			want:       "yuv420p",
		},
		{
			name:       "first candidate preferred over plugin order",
			candidates: []string{"rgba", "gray"},
			supported:  []string{"gray", "rgba"},
			want:       "rgba",
		},
		{
			name:       "disjoint",
			candidates: []string{"yuv420p", "rgb24"},
			supported:  []string{"gray"},
			wantErr:    true,
		},
		{
			name:       "empty plugin list",
			candidates: []string{"yuv420p"},
			supported:  nil,
			wantErr:    true,
		},
		{
			name:       "hardware surface never selected",
			candidates: []string{"vaapi", "yuv420p"},
			supported:  []string{"vaapi", "yuv420p"},
			want:       "yuv420p",
		},
		{
			name:       "only hardware and bitstream formats",
			candidates: []string{"vaapi"},
			supported:  []string{"vaapi", "h264"},
			wantErr:    true,
		},
		{
			name:       "bitstream candidate",
			candidates: []string{"h264"},
			supported:  []string{"h264", "gray"},
			wantErr:    true,
		},
		{
			name:       "no candidates",
			candidates: nil,
			supported:  []string{"yuv420p"},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(mocks.NewLogger()).Negotiate(tt.candidates, &mocks.Plugin{Formats: tt.supported})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoCompatibleFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNegotiate_UnknownTagsSkipped(t *testing.T) {
	log := mocks.NewLogger()
	p := &mocks.Plugin{Formats: []string{"fancy10bit", "yuv420p"}}

	got, err := New(log).Negotiate([]string{"fancy10bit", "yuv420p"}, p)
	require.NoError(t, err)
	assert.Equal(t, "yuv420p", got)
	assert.Len(t, log.Entries(ports.LevelWarn), 1)

	_, err = New(log).Negotiate([]string{"yuv420p"}, &mocks.Plugin{Formats: []string{"fancy10bit"}})
	assert.ErrorIs(t, err, ErrNoCompatibleFormat)
}

func TestNegotiate_UnprocessableTagsWarned(t *testing.T) {
	log := mocks.NewLogger()
	p := &mocks.Plugin{Formats: []string{"cuda", "hevc", "gray"}}

	got, err := New(log).Negotiate([]string{"cuda", "gray"}, p)
	require.NoError(t, err)
	assert.Equal(t, "gray", got)
	assert.Len(t, log.Entries(ports.LevelWarn), 2)
}

func TestNegotiate_QueriesOnce(t *testing.T) {
	p := &mocks.Plugin{Formats: []string{"gray"}}
	_, err := New(mocks.NewLogger()).Negotiate([]string{"gray"}, p)
	require.NoError(t, err)
	assert.Equal(t, 1, p.QueryFormatsCalls)
}

func TestNegotiate_QueryError(t *testing.T) {
	boom := errors.New("boom")
	p := &mocks.Plugin{QueryFormatsFunc: func() ([]string, error) { return nil, boom }}

	_, err := New(mocks.NewLogger()).Negotiate([]string{"gray"}, p)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNoCompatibleFormat)
}
