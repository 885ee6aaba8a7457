package pt2itp

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is YAML configuration of the stage
type Config struct {
	Split SplitConfig `yaml:"split"`
	Post  PostConfig  `yaml:"post"`
	OSM   OSMConfig   `yaml:"osm"`
	// Workers limits number of features processed at once (0 = unlimited)
	Workers int `yaml:"workers,omitempty"`
}

// SplitConfig holds splitter options
type SplitConfig struct {
	Stdout                bool     `yaml:"stdout,omitempty"`
	Debug                 bool     `yaml:"debug,omitempty"`
	Country               string   `yaml:"country,omitempty"`
	BendThreshold         *float64 `yaml:"bend_threshold,omitempty"`
	MaxMatchDistance      *float64 `yaml:"max_match_distance,omitempty"`
	IntersectionTolerance *float64 `yaml:"intersection_tolerance,omitempty"`
}

// PostConfig holds post pipeline options
type PostConfig struct {
	Stages []string `yaml:"stages,omitempty"`
	Props  []string `yaml:"props,omitempty"`
}

// OSMConfig holds OSM import options
type OSMConfig struct {
	Tags []string `yaml:"tags,omitempty"`
}

// DefaultConfig returns configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Post: PostConfig{
			Stages: []string{string(STAGE_DEDUPE), string(STAGE_PROPS)},
		},
		OSM: OSMConfig{
			Tags: DefaultHighwayTags(),
		},
	}
}

// LoadConfig reads and validates YAML configuration. Missing sections keep default values
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("Config file not found: %s", path)
		}
		return nil, errors.Wrap(err, "Can't read config file")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "Can't parse config YAML")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges of numeric options and stage names
func (cfg *Config) Validate() error {
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", cfg.Workers)
	}
	if v := cfg.Split.BendThreshold; v != nil && (*v <= 0 || *v > 180) {
		return fmt.Errorf("split.bend_threshold must be in (0, 180], got %f", *v)
	}
	if v := cfg.Split.MaxMatchDistance; v != nil && *v < 0 {
		return fmt.Errorf("split.max_match_distance must be >= 0, got %f", *v)
	}
	if v := cfg.Split.IntersectionTolerance; v != nil && *v < 0 {
		return fmt.Errorf("split.intersection_tolerance must be >= 0, got %f", *v)
	}
	if _, err := cfg.PostPipeline(); err != nil {
		return errors.Wrap(err, "post.stages")
	}
	return nil
}

// SplitterOptions converts configuration to splitter options
func (cfg *Config) SplitterOptions() []func(*Splitter) {
	options := []func(*Splitter){
		WithStdout(cfg.Split.Stdout),
		WithDebug(cfg.Split.Debug),
		WithCountry(cfg.Split.Country),
	}
	if v := cfg.Split.BendThreshold; v != nil {
		options = append(options, WithBendThreshold(*v))
	}
	if v := cfg.Split.MaxMatchDistance; v != nil {
		options = append(options, WithMaxMatchDistance(*v))
	}
	if v := cfg.Split.IntersectionTolerance; v != nil {
		options = append(options, WithIntersectionTolerance(*v))
	}
	return options
}

// PostPipeline builds post pipeline from configured stages
func (cfg *Config) PostPipeline() (*PostPipeline, error) {
	stages := make([]PostStage, len(cfg.Post.Stages))
	for i, stage := range cfg.Post.Stages {
		stages[i] = PostStage(stage)
	}
	return NewPostPipeline(stages, cfg.Post.Props)
}

// OsmConfiguration returns OSM import filter
func (cfg *Config) OsmConfiguration() *OsmConfiguration {
	return &OsmConfiguration{
		EntityName: "highway",
		Tags:       cfg.OSM.Tags,
	}
}
