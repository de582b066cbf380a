package config

import "sort"

// Presets are ready-made run configurations. Only keys that differ from the
// defaults are set; GetPreset fills the rest from DefaultConfig.
var Presets = map[string]*Config{
	// SWM4-like polarizable water, short equilibration schedule.
	"water": {
		Temperature: 298.15,
		Molecules:   216,
		Box:         []float64{1.9, 1.9, 1.9},
		Sites: []Site{
			{Name: "OW", Mass: 15.9994, Polarizable: true},
			{Name: "HW1", Mass: 1.008},
			{Name: "HW2", Mass: 1.008},
		},
	},
	// Polarizable carbon-dioxide-like linear molecule at the default
	// ionic-liquid study temperature.
	"co2": {
		Temperature: 353.0,
		Molecules:   125,
		Box:         []float64{2.4, 2.4, 2.4},
		Sites: []Site{
			{Name: "C1", Mass: 12.011, Polarizable: true},
			{Name: "O1", Mass: 15.9994, Polarizable: true},
			{Name: "O2", Mass: 15.9994, Polarizable: true},
		},
	},
	// Non-polarizable monatomic fluid; exercises the all-core path with no
	// Drude subsystem.
	"argon": {
		Temperature: 120.0,
		Molecules:   256,
		Box:         []float64{2.6, 2.6, 2.6},
		Sites: []Site{
			{Name: "AR", Mass: 39.948},
		},
	},
}

// GetPreset returns a full configuration for name, or nil when unknown.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Temperature = p.Temperature
	cfg.Molecules = p.Molecules
	cfg.Box = append([]float64(nil), p.Box...)
	cfg.Sites = append([]Site(nil), p.Sites...)
	if p.DrudeTemperature != 0 {
		cfg.DrudeTemperature = p.DrudeTemperature
	}
	if p.Blocks != 0 {
		cfg.Blocks = p.Blocks
	}
	if p.StepsPerBlock != 0 {
		cfg.StepsPerBlock = p.StepsPerBlock
	}
	return cfg
}

// ListPresets returns the preset names in stable order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
