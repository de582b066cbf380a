package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/avolkov/drudemd/internal/engine"
	"github.com/avolkov/drudemd/internal/topology"
)

const (
	DefaultTemperature      = 353.0 // K
	DefaultDrudeTemperature = 1.0   // K
	DefaultFriction         = 5.0   // 1/ps
	DefaultDrudeFriction    = 20.0  // 1/ps
	DefaultTimestep         = 0.001 // ps
	DefaultSpringK          = 209200.0
	DefaultBlocks           = 100
	DefaultStepsPerBlock    = 1000
	DefaultLogFile          = "run.log"
)

// Site is one atom of the molecular template, full atomic mass.
type Site struct {
	Name        string  `yaml:"name"`
	Mass        float64 `yaml:"mass"`
	Polarizable bool    `yaml:"polarizable"`
}

// Config is one run configuration. A yaml file is applied over
// DefaultConfig, so omitted keys keep their defaults.
type Config struct {
	Temperature      float64   `yaml:"temperature"`
	DrudeTemperature float64   `yaml:"drude_temperature"`
	Friction         float64   `yaml:"friction"`
	DrudeFriction    float64   `yaml:"drude_friction"`
	Timestep         float64   `yaml:"timestep"`
	SpringK          float64   `yaml:"spring_k"`
	DrudeMass        float64   `yaml:"drude_mass"`
	Box              []float64 `yaml:"box"`
	Seed             int64     `yaml:"seed"`

	Blocks        int `yaml:"blocks"`
	StepsPerBlock int `yaml:"steps_per_block"`

	Molecules int    `yaml:"molecules"`
	Sites     []Site `yaml:"sites"`

	Classifier       string  `yaml:"classifier"`
	MassCutoff       float64 `yaml:"mass_cutoff"`
	CountConstraints bool    `yaml:"count_constraints"`

	LogFile string `yaml:"logfile"`
}

func DefaultConfig() *Config {
	return &Config{
		Temperature:      DefaultTemperature,
		DrudeTemperature: DefaultDrudeTemperature,
		Friction:         DefaultFriction,
		DrudeFriction:    DefaultDrudeFriction,
		Timestep:         DefaultTimestep,
		SpringK:          DefaultSpringK,
		DrudeMass:        topology.DefaultMassDelta,
		Box:              []float64{3.0, 3.0, 3.0},
		Blocks:           DefaultBlocks,
		StepsPerBlock:    DefaultStepsPerBlock,
		Molecules:        125,
		Sites: []Site{
			{Name: "OW", Mass: 15.9994, Polarizable: true},
			{Name: "HW1", Mass: 1.008},
			{Name: "HW2", Mass: 1.008},
		},
		Classifier:       string(topology.AdjacencyBased),
		MassCutoff:       topology.DefaultMassCutoff,
		CountConstraints: true,
		LogFile:          DefaultLogFile,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch topology.Strategy(c.Classifier) {
	case topology.AdjacencyBased, topology.MassThresholdBased:
	default:
		return fmt.Errorf("unknown classifier %q", c.Classifier)
	}
	if len(c.Box) != 3 {
		return fmt.Errorf("box needs 3 lengths, got %d", len(c.Box))
	}
	for _, l := range c.Box {
		if l <= 0 {
			return fmt.Errorf("box lengths must be positive")
		}
	}
	if c.Blocks <= 0 || c.StepsPerBlock <= 0 {
		return fmt.Errorf("blocks and steps_per_block must be positive")
	}
	if c.Molecules <= 0 || len(c.Sites) == 0 {
		return fmt.Errorf("topology needs molecules and sites")
	}
	if c.Timestep <= 0 {
		return fmt.Errorf("timestep must be positive")
	}
	if c.Temperature < 0 || c.DrudeTemperature < 0 {
		return fmt.Errorf("thermostat temperatures must be non-negative")
	}
	return nil
}

// EngineConfig maps the run configuration onto the reference engine.
func (c *Config) EngineConfig() engine.LangevinConfig {
	return engine.LangevinConfig{
		Temperature:      c.Temperature,
		DrudeTemperature: c.DrudeTemperature,
		Friction:         c.Friction,
		DrudeFriction:    c.DrudeFriction,
		Timestep:         c.Timestep,
		SpringK:          c.SpringK,
		DrudeMass:        c.DrudeMass,
		Box:              [3]float64{c.Box[0], c.Box[1], c.Box[2]},
		Seed:             c.Seed,
	}
}

// EngineSites maps the template onto engine sites.
func (c *Config) EngineSites() []engine.Site {
	sites := make([]engine.Site, len(c.Sites))
	for i, s := range c.Sites {
		sites[i] = engine.Site{Name: s.Name, Mass: s.Mass, Polarizable: s.Polarizable}
	}
	return sites
}

// ClassifyOptions maps the configuration onto classification options.
func (c *Config) ClassifyOptions() topology.Options {
	opts := topology.DefaultOptions()
	opts.Strategy = topology.Strategy(c.Classifier)
	opts.MassDelta = c.DrudeMass
	opts.MassCutoff = c.MassCutoff
	return opts
}
