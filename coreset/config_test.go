package coreset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBmorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     BmorConfig
		wantErr bool
	}{
		{"valid", BmorConfig{K: 1, N: 10, Beta: 2, Gamma: 2}, false},
		{"zero k", BmorConfig{K: 0, N: 10, Beta: 2, Gamma: 2}, true},
		{"zero n", BmorConfig{K: 1, N: 0, Beta: 2, Gamma: 2}, true},
		{"beta below 1", BmorConfig{K: 1, N: 10, Beta: 0.5, Gamma: 2}, true},
		{"gamma below 1", BmorConfig{K: 1, N: 10, Beta: 2, Gamma: 0.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMPConfigValidate(t *testing.T) {
	assert.NoError(t, MPConfig{Alpha: 0.75}.Validate())
	assert.NoError(t, MPConfig{Alpha: 1}.Validate())
	assert.Error(t, MPConfig{Alpha: 0}.Validate())
	assert.Error(t, MPConfig{Alpha: 1.5}.Validate())
}

func TestLoadEngineConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	yamlContent := `
distance:
  kind: l2
bmor:
  k: 10
  n: 1000
  beta: 2
  gamma: 2
mp:
  alpha: 0.75
coreset:
  bmor:
    k: 10
    n: 1000
    beta: 2
    gamma: 2
  sample_size: 500
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))

	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "l2", cfg.Distance.Kind)
	assert.Equal(t, 10, cfg.Bmor.K)
	assert.Equal(t, 0.75, cfg.MP.Alpha)
	assert.Equal(t, 500, cfg.Coreset.SampleSize)
}

func TestLoadEngineConfigRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus_field: true\n"), 0o600))

	_, err := LoadEngineConfig(path)
	assert.Error(t, err)
}

func TestBmorConfigSeedOrDefault(t *testing.T) {
	cfg := BmorConfig{}
	assert.Equal(t, DefaultSeed, cfg.SeedOrDefault())

	custom := int64(7)
	cfg.Seed = &custom
	assert.Equal(t, Seed(7), cfg.SeedOrDefault())
}
