package server

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadPoolLabels reads an optional YAML file mapping a pool's asset string
// form (e.g. "contract:osmo1...", "native:uincentive") to a human-readable
// display name, used to decorate pool listings in API responses without
// the engine itself needing to know about display names.
func loadPoolLabels(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	labels := make(map[string]string, len(raw))
	for asset, label := range raw {
		asset = strings.TrimSpace(asset)
		if asset == "" || label == "" {
			continue
		}
		labels[asset] = label
	}

	return labels, nil
}

func (s *Server) lookupPoolLabel(assetString string) (string, bool) {
	if len(s.poolLabels) == 0 {
		return "", false
	}
	label, ok := s.poolLabels[assetString]
	return label, ok
}
