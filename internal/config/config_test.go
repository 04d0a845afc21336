package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-brain/internal/behavior"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aisim.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 500*time.Millisecond, cfg.Agents.Interval.Duration)
	require.Equal(t, time.Second/60, cfg.Frame.Duration)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
seed = 7
frame = "20ms"

[poi]
count = 3

[agents]
count = 2
interval = "250ms"
debug_info = true

[[behaviors]]
name = "Patrol"
type = "POI"
expression = "index == 0 ? 2.0 : 0.0"
speed = 0.5
track_live = true
`)
	t.Setenv(EnvDB, "")
	t.Setenv(EnvSeed, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(7), cfg.Seed)
	require.Equal(t, 20*time.Millisecond, cfg.Frame.Duration)
	require.Equal(t, 3, cfg.POI.Count)
	require.Equal(t, Default().POI.Radius, cfg.POI.Radius, "unset keys keep defaults")
	require.Equal(t, 250*time.Millisecond, cfg.Agents.Interval.Duration)
	require.True(t, cfg.Agents.DebugInfo)
	require.Equal(t, 250*time.Millisecond, cfg.Agents.ShotDuration.Duration, "unset agent keys keep defaults")

	require.Equal(t, int64(7), cfg.GenConfig().Seed)

	ac, err := cfg.AgentConfig()
	require.NoError(t, err)
	require.Equal(t, 2, ac.Count)
	require.Len(t, ac.Extra, 1)
	b, ok := ac.Extra[0].(*behavior.Expr)
	require.True(t, ok)
	require.Equal(t, "Patrol", b.Name())
	require.Equal(t, "index == 0 ? 2.0 : 0.0", b.Source())
	require.Equal(t, 0.5, b.Speed)
	require.Equal(t, behavior.KeyMoveForwards, b.Key)
	require.True(t, b.TrackLive)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDB, "/tmp/other.db")
	t.Setenv(EnvSeed, "99")
	t.Setenv(EnvAdminKey, "hunter2")

	cfg, err := Load(writeConfig(t, "[api]\naddr = \":8080\"\n"))
	require.NoError(t, err)
	require.Equal(t, "/tmp/other.db", cfg.DBPath)
	require.Equal(t, int64(99), cfg.Seed)
	require.Equal(t, ":8080", cfg.API.Addr)
	require.Equal(t, "hunter2", cfg.API.AdminKey)

	t.Setenv(EnvSeed, "nope")
	_, err = Load("")
	require.ErrorContains(t, err, EnvSeed)
}

func TestLoad_Rejects(t *testing.T) {
	t.Setenv(EnvDB, "")
	t.Setenv(EnvSeed, "")

	_, err := Load(writeConfig(t, `colour = "blue"`))
	require.ErrorContains(t, err, "unknown key")

	_, err = Load(writeConfig(t, `frame = "soon"`))
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "[agents]\ninterval = \"0s\"\n"))
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeConfig(t, "[agents]\nprojectile_lifetime = \"-1s\"\n"))
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeConfig(t, `
[[behaviors]]
name = "A"
type = "POI"
expression = "1.0"

[[behaviors]]
name = "A"
type = "POI"
expression = "2.0"
`))
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorContains(t, err, "duplicate")
}

func TestAgentConfig_BadExpression(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Behaviors = []BehaviorConfig{{Name: "Broken", Type: "POI", Expression: "dist +"}}
	require.NoError(t, cfg.Validate())

	_, err := cfg.AgentConfig()
	require.ErrorContains(t, err, "Broken")
}
