package main

import (
	"fmt"
	"os"
	"unsafe"

	"gopkg.in/yaml.v3"

	"xalloc/alloc"
	"xalloc/container/growth"
	"xalloc/prometheus"
	"xalloc/xlog"
)

const (
	ProviderArena     = "arena"
	ProviderGo        = "go"
	ProviderSizeClass = "sizeclass"
)

type (
	Config struct {
		Log        xlog.XLogConf     `yaml:"log"`
		Prometheus prometheus.Config `yaml:"prometheus"`
		// arena, go or sizeclass
		Provider string          `yaml:"provider"`
		Arena    alloc.ArenaConf `yaml:"arena"`
		Scenario ScenarioConf    `yaml:"scenario"`
	}
	ScenarioConf struct {
		// Initial is the number of elements the array starts with.
		Initial int `yaml:"initial"`
		// linear, doubling or adaptive
		Policy string `yaml:"policy"`
		Pushes int    `yaml:"pushes"`
		Pops   int    `yaml:"pops"`
	}
)

// LoadConfig reads a YAML config. An empty path yields the defaults. Keys
// absent from the file keep their default, so an explicit 0 is honoured.
func LoadConfig(path string) (Config, error) {
	conf := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return conf, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &conf); err != nil {
			return conf, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if conf.Arena.Capacity == 0 {
		conf.Arena.Capacity = 4 * conf.Scenario.Initial
	}
	if _, err := conf.Scenario.policy(); err != nil {
		return conf, err
	}
	switch conf.Provider {
	case ProviderArena, ProviderGo, ProviderSizeClass:
	default:
		return conf, fmt.Errorf("unknown provider %q", conf.Provider)
	}
	if conf.Scenario.Initial < 0 || conf.Scenario.Pushes < 0 || conf.Scenario.Pops < 0 {
		return conf, fmt.Errorf("negative scenario counts: %+v", conf.Scenario)
	}
	return conf, nil
}

func defaultConfig() Config {
	return Config{
		Provider: ProviderArena,
		Scenario: ScenarioConf{
			// Small blocks live in slabs that cannot grow, so start at 16KiB.
			Initial: (16 << 10) / int(unsafe.Sizeof(int(0))),
			Policy:  "doubling",
			Pushes:  4,
			Pops:    1,
		},
	}
}

func (s ScenarioConf) policy() (growth.Policy, error) {
	switch s.Policy {
	case "linear":
		return growth.Linear{}, nil
	case "doubling":
		return growth.Doubling{}, nil
	case "adaptive":
		return growth.Adaptive{}, nil
	}
	return nil, fmt.Errorf("unknown growth policy %q", s.Policy)
}
