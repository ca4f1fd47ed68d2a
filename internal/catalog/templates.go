package catalog

import (
	"bytes"
	_ "embed"

	"github.com/zeusync/worldforge/internal/core/world"
)

//go:embed templates/builtin.yaml
var builtinTemplates []byte

// Templates returns the built-in static worlds.
func Templates() ([]world.Template, error) {
	return world.LoadTemplates(bytes.NewReader(builtinTemplates))
}
