package pt2itp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
workers: 4
split:
  country: ca
  debug: true
  bend_threshold: 120
  max_match_distance: 250
post:
  stages: [dedupe]
osm:
  tags: [residential, tertiary]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "ca", cfg.Split.Country)
	assert.True(t, cfg.Split.Debug)
	require.NotNil(t, cfg.Split.BendThreshold)
	assert.Equal(t, 120.0, *cfg.Split.BendThreshold)
	require.NotNil(t, cfg.Split.MaxMatchDistance)
	assert.Equal(t, 250.0, *cfg.Split.MaxMatchDistance)
	assert.Nil(t, cfg.Split.IntersectionTolerance)
	assert.Equal(t, []string{"dedupe"}, cfg.Post.Stages)

	osmCfg := cfg.OsmConfiguration()
	assert.Equal(t, "highway", osmCfg.EntityName)
	assert.True(t, osmCfg.CheckTag("tertiary"))
	assert.False(t, osmCfg.CheckTag("motorway"))

	splitter, err := NewSplitter(cfg.SplitterOptions()...)
	require.NoError(t, err)
	assert.Equal(t, "ca", splitter.country)
	assert.Equal(t, 250.0, splitter.maxMatchDistance)
	assert.Equal(t, defaultIntersectionTolerance, splitter.intersectionTolerance)
	assert.InDelta(t, 120.0, radiansTodegrees(splitter.bendThreshold), 1e-9)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "workers: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Post, cfg.Post)
	assert.Equal(t, DefaultHighwayTags(), cfg.OSM.Tags)

	pipeline, err := cfg.PostPipeline()
	require.NoError(t, err)
	assert.Equal(t, []PostStage{STAGE_DEDUPE, STAGE_PROPS}, pipeline.Stages())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "split: [\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "workers: -1\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "split:\n  bend_threshold: 200\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "split:\n  intersection_tolerance: -1\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "post:\n  stages: [props, dedupe]\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrderingViolation))
}
