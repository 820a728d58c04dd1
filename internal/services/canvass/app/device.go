package app

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// DefaultDevice describes this client when no device file is configured.
func DefaultDevice() map[string]any {
	return map[string]any{
		"Manufacturer": "hellovoter",
		"Model":        "cli",
		"SystemName":   runtime.GOOS,
		"Arch":         runtime.GOARCH,
	}
}

// LoadDevice reads the device descriptor sent with each handshake from a
// YAML mapping. An empty path returns DefaultDevice.
func LoadDevice(path string) (map[string]any, error) {
	if path == "" {
		return DefaultDevice(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read device file: %w", err)
	}
	var device map[string]any
	if err := yaml.Unmarshal(data, &device); err != nil {
		return nil, fmt.Errorf("parse device file %s: %w", path, err)
	}
	if len(device) == 0 {
		return nil, fmt.Errorf("device file %s is empty", path)
	}
	return device, nil
}
