package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed internal_plugins.json
var internalPluginsJSON []byte

// InternalPlugins returns the filenames of plugins fetched from the
// distribution site, in manifest order.
func InternalPlugins() ([]string, error) {
	var names []string
	if err := json.Unmarshal(internalPluginsJSON, &names); err != nil {
		return nil, fmt.Errorf("failed to decode internal plugin manifest: %w", err)
	}
	return names, nil
}
