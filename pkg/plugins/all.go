// Package plugins registers the built-in plugins with plugin.Default.
// Import it for its side effects.
package plugins

import (
	_ "github.com/user/framehost/pkg/plugins/delay"
	_ "github.com/user/framehost/pkg/plugins/framerate2x"
	_ "github.com/user/framehost/pkg/plugins/scale"
	_ "github.com/user/framehost/pkg/plugins/timestamp"
)
