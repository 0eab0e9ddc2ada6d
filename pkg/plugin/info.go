package plugin

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/edlink/internal/plugin/protocol"
)

// Info is the static metadata a plugin advertises in query mode. Plugins
// usually embed it as plugin.yaml:
//
//	name: wordcount
//	menu: Tools/Word Count
//	accelerator: <Control><Shift>c
//	protocol: 1.0.0
type Info struct {
	Name         string `yaml:"name"`
	MenuLocation string `yaml:"menu"`
	Accelerator  string `yaml:"accelerator,omitempty"`

	// Protocol is the protocol revision the plugin was written against.
	Protocol string `yaml:"protocol,omitempty"`
}

// LoadInfo parses a plugin manifest and checks its protocol revision.
func LoadInfo(data []byte) (Info, error) {
	var info Info
	if err := yaml.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("failed to parse plugin manifest: %w", err)
	}
	if info.Protocol != "" {
		if _, err := protocol.IsCompatible(info.Protocol); err != nil {
			return Info{}, fmt.Errorf("plugin manifest %q: %w", info.Name, err)
		}
	}
	return info, nil
}

// MustLoadInfo is like LoadInfo but panics on error. It is meant for
// manifests embedded at build time.
func MustLoadInfo(data []byte) Info {
	info, err := LoadInfo(data)
	if err != nil {
		panic(err)
	}
	return info
}
