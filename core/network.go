package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"dexstream/pkg/utils"
)

// Network is a single network's static identity: chain tag, upstream
// endpoint and native asset. Every network is served over the same shared
// HTTP surface (bound once to API_PORT), so identity carries no port of
// its own.
type Network struct {
	Name             string  `yaml:"name" json:"name"`
	ChainTag         string  `yaml:"chain_tag" json:"chain_tag"`
	UpstreamEndpoint string  `yaml:"upstream_endpoint" json:"upstream_endpoint"`
	NativeAsset      Address `yaml:"native_asset" json:"native_asset"`
}

// defaultNetworksPath is where the static per-network defaults live; it is
// merged against the NETWORKS env var, which decides which of these are
// actually enabled for this process.
const defaultNetworksPath = "config/networks.yaml"

// LoadNetworks resolves the enabled network set: it reads the static
// defaults file, then keeps only the networks named in enabled (in the
// order given, so callers can zip it against a positional HEARTBEATS list).
func LoadNetworks(enabled []string) ([]Network, error) {
	all, err := readNetworkDefaults(defaultNetworksPath)
	if err != nil {
		return nil, utils.Wrap(err, "read network defaults")
	}
	byName := make(map[string]Network, len(all))
	for _, n := range all {
		byName[n.Name] = n
	}
	out := make([]Network, 0, len(enabled))
	for _, name := range enabled {
		n, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("network %q is not declared in %s", name, defaultNetworksPath)
		}
		out = append(out, n)
	}
	return out, nil
}

func readNetworkDefaults(path string) ([]Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var nets []Network
	if err := yaml.Unmarshal(raw, &nets); err != nil {
		return nil, utils.Wrap(err, fmt.Sprintf("parse %s", path))
	}
	return nets, nil
}
