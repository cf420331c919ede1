// Package factory instantiates pluggable modules (metrics sinks, trip log
// stores) from configuration. A module is a type string plus a map of raw
// settings that the factory decodes into its own typed struct.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	_ = reg.Register("nop", func(map[string]any) (metrics.MetricsSink, error) {
//	    return metrics.NopSink{}, nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "nop"})
package factory
