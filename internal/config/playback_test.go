package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPlaybackConfig(t *testing.T) {
	cfg := DefaultPlaybackConfig()

	require.NotNil(t, cfg.UpsampleFactor)
	assert.Equal(t, 24, *cfg.UpsampleFactor)
	require.NotNil(t, cfg.FallbackDuration)
	assert.Equal(t, "10s", *cfg.FallbackDuration)
	assert.Equal(t, 100.0, cfg.GetUnitScale())
	assert.True(t, cfg.GetLoop())
	assert.Equal(t, PolicyIntersect, cfg.GetMissingPolicy())
	assert.NoError(t, cfg.Validate())
}

func TestEmptyPlaybackConfig_Getters(t *testing.T) {
	cfg := EmptyPlaybackConfig()

	assert.Equal(t, 24, cfg.GetUpsampleFactor())
	assert.Equal(t, 0.0, cfg.GetTargetFPS())
	assert.Equal(t, 120.0, cfg.GetDisplayFPS())
	assert.Equal(t, 10*time.Second, cfg.GetFallbackDuration())
	assert.False(t, cfg.GetPrecompute())
	assert.Equal(t, 4, cfg.GetWorkers())
}

func TestLoadPlaybackConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "playback.json")

	testJSON := `{
  "upsample_factor": 3,
  "fallback_duration": "2500ms",
  "loop": false,
  "unit_scale": 1,
  "missing_policy": "hold_last"
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0644))

	cfg, err := LoadPlaybackConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.GetUpsampleFactor())
	assert.Equal(t, 2500*time.Millisecond, cfg.GetFallbackDuration())
	assert.False(t, cfg.GetLoop())
	assert.Equal(t, 1.0, cfg.GetUnitScale())
	assert.Equal(t, PolicyHoldLast, cfg.GetMissingPolicy())

	// Omitted fields keep defaults.
	assert.Equal(t, 4, cfg.GetWorkers())
	assert.Equal(t, 120.0, cfg.GetDisplayFPS())
}

func TestLoadPlaybackConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong extension", write("cfg.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "absent.json"), "failed to stat"},
		{"bad json", write("bad.json", "{"), "failed to parse"},
		{"zero factor", write("factor.json", `{"upsample_factor": 0}`), "upsample_factor"},
		{"bad duration", write("dur.json", `{"fallback_duration": "soon"}`), "fallback_duration"},
		{"negative duration", write("neg.json", `{"fallback_duration": "-1s"}`), "fallback_duration"},
		{"zero scale", write("scale.json", `{"unit_scale": 0}`), "unit_scale"},
		{"zero workers", write("workers.json", `{"workers": 0}`), "workers"},
		{"unknown policy", write("policy.json", `{"missing_policy": "union"}`), "missing_policy"},
		{"zero display fps", write("fps.json", `{"display_fps": 0}`), "display_fps"},
		{"negative target fps", write("tfps.json", `{"target_fps": -1}`), "target_fps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPlaybackConfig(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadPlaybackConfig_TooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "huge.json")
	body := `{"loop": true, "pad": "` + strings.Repeat("x", 1024*1024) + `"}`
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))

	_, err := LoadPlaybackConfig(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	assert.Equal(t, 24, cfg.GetUpsampleFactor())
	assert.Equal(t, 10*time.Second, cfg.GetFallbackDuration())
	assert.Equal(t, PolicyIntersect, cfg.GetMissingPolicy())
}
