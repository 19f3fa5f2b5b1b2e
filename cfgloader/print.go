package cfgloader

import (
	"log/slog"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/rise-and-shine/pulseq/mask"
)

// printConfig logs the loaded config as flat dotted keys, with fields tagged
// `mask:"true"` hidden.
func printConfig(config any) {
	out, err := yaml.Marshal(flatConfig(config))
	if err != nil {
		slog.Error("failed to marshal config", "error", err.Error())
		return
	}
	slog.Info("loaded config:\n" + string(out))
}

// flatConfig masks config and renders durations the way they are written in
// the yaml files.
func flatConfig(config any) *orderedmap.OrderedMap[string, any] {
	flat := mask.StructToOrdMap(config)
	for pair := flat.Oldest(); pair != nil; pair = pair.Next() {
		if d, ok := pair.Value.(time.Duration); ok {
			pair.Value = d.String()
		}
	}
	return flat
}
