// Package negotiate picks the pixel format a source and a plugin agree on.
package negotiate

import (
	"errors"
	"fmt"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/ports"
)

// ErrNoCompatibleFormat is returned when the plugin supports none of the
// candidate formats. It is fatal for the stage.
var ErrNoCompatibleFormat = errors.New("no compatible pixel format")

// FormatQuerier reports the pixel formats a plugin accepts.
// *plugin.Adapter satisfies it.
type FormatQuerier interface {
	QueryFormats() ([]string, error)
}

// Negotiator intersects candidate formats with a plugin's formats.
type Negotiator struct {
	logger ports.Logger
}

// New creates a Negotiator logging through log.
func New(log ports.Logger) *Negotiator {
	return &Negotiator{logger: log.WithComponent("negotiate")}
}

// Negotiate queries q once and returns the first candidate the plugin
// also supports. Candidate order decides priority; the plugin's own order
// only matters for the log. Tags that are unknown, hardware surfaces or
// compressed bitstreams are never selected.
func (n *Negotiator) Negotiate(candidates []string, q FormatQuerier) (string, error) {
	supported, err := q.QueryFormats()
	if err != nil {
		return "", err
	}

	accepted := make(map[string]struct{}, len(supported))
	for _, tag := range supported {
		info, ok := frame.LookupPixelFormat(tag)
		if !ok {
			n.logger.Warn("Pixel format '%s' is not recognized, skipping", tag)
			continue
		}
		if !info.Processable() {
			n.logger.Warn("Pixel format '%s' cannot be processed, skipping", tag)
			continue
		}
		accepted[tag] = struct{}{}
	}
	if len(accepted) == 0 {
		return "", fmt.Errorf("%w: plugin declared no usable formats", ErrNoCompatibleFormat)
	}

	for _, tag := range candidates {
		if _, ok := accepted[tag]; ok {
			n.logger.Debug("Negotiated pixel format %s", tag)
			return tag, nil
		}
	}
	return "", fmt.Errorf("%w: candidates %v, plugin %v", ErrNoCompatibleFormat, candidates, supported)
}
