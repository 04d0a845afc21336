// Package config loads the simulation settings for cmd/aisim.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/talgya/mini-brain/internal/behavior"
	"github.com/talgya/mini-brain/internal/brain"
	"github.com/talgya/mini-brain/internal/engine"
	"github.com/talgya/mini-brain/internal/world"
)

// Env overrides, applied after the file.
const (
	EnvDB       = "AISIM_DB"
	EnvSeed     = "AISIM_SEED"
	EnvAdminKey = "AISIM_ADMIN_KEY"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration that decodes from TOML strings like "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds every setting of a simulation run.
type Config struct {
	Seed   int64    `toml:"seed"` // 0 = crypto-backed randomness
	DBPath string   `toml:"db_path"`
	Frame  Duration `toml:"frame"` // Simulated time per frame
	Speed  float64  `toml:"speed"` // Real-time multiplier, 0 = paused

	POI       POIConfig        `toml:"poi"`
	Agents    AgentsConfig     `toml:"agents"`
	API       APIConfig        `toml:"api"`
	Behaviors []BehaviorConfig `toml:"behaviors"`
}

// APIConfig configures the HTTP API. An empty Addr disables it.
type APIConfig struct {
	Addr     string `toml:"addr"`
	AdminKey string `toml:"-"` // From AISIM_ADMIN_KEY only
}

// POIConfig mirrors world.GenConfig.
type POIConfig struct {
	Count      int     `toml:"count"`
	Radius     float64 `toml:"radius"`
	MinSpacing float64 `toml:"min_spacing"`
	Threshold  float64 `toml:"threshold"`
}

// AgentsConfig mirrors engine.AgentConfig.
type AgentsConfig struct {
	Count       int      `toml:"count"`
	SpawnRadius float64  `toml:"spawn_radius"`
	Speed       float64  `toml:"speed"`
	SightRadius float64  `toml:"sight_radius"`
	Interval    Duration `toml:"interval"`
	DebugInfo   bool     `toml:"debug_info"`
	Projectile  string   `toml:"projectile"`

	ShotDuration       Duration `toml:"shot_duration"`
	ProjectileLifetime Duration `toml:"projectile_lifetime"`
}

// BehaviorConfig declares an expression-scored behavior.
type BehaviorConfig struct {
	Name       string  `toml:"name"`
	Type       string  `toml:"type"`
	Expression string  `toml:"expression"`
	Speed      float64 `toml:"speed"`
	Key        string  `toml:"key"`
	TrackLive  bool    `toml:"track_live"`
}

// Default returns the built-in settings.
func Default() Config {
	gen := world.DefaultGenConfig()
	ag := engine.DefaultAgentConfig()
	return Config{
		Seed:   42,
		DBPath: "data/aisim.db",
		Frame:  Duration{time.Second / engine.FramesPerSecond},
		Speed:  1,
		POI: POIConfig{
			Count:      gen.Count,
			Radius:     gen.Radius,
			MinSpacing: gen.MinSpacing,
			Threshold:  gen.Threshold,
		},
		Agents: AgentsConfig{
			Count:       ag.Count,
			SpawnRadius: ag.SpawnRadius,
			Speed:       ag.Speed,
			SightRadius: ag.SightRadius,
			Interval:    Duration{brain.DefaultInterval},
			Projectile:  ag.Projectile,

			ShotDuration:       Duration{ag.ShotDuration},
			ProjectileLifetime: Duration{ag.ProjectileLifetime},
		},
	}
}

// Load reads path over the defaults, applies env overrides and validates.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	c.API.AdminKey = os.Getenv(EnvAdminKey)
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvSeed, err)
		}
		c.Seed = seed
	}
	return nil
}

// Validate reports the first setting that cannot run.
func (c Config) Validate() error {
	switch {
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path is empty", ErrInvalid)
	case c.Frame.Duration <= 0:
		return fmt.Errorf("%w: frame must be positive", ErrInvalid)
	case c.Speed < 0:
		return fmt.Errorf("%w: speed must not be negative", ErrInvalid)
	case c.POI.Count < 0:
		return fmt.Errorf("%w: poi.count must not be negative", ErrInvalid)
	case c.Agents.Count < 0:
		return fmt.Errorf("%w: agents.count must not be negative", ErrInvalid)
	case c.Agents.Interval.Duration <= 0:
		return fmt.Errorf("%w: agents.interval must be positive", ErrInvalid)
	case c.Agents.SightRadius <= 0:
		return fmt.Errorf("%w: agents.sight_radius must be positive", ErrInvalid)
	case c.Agents.ShotDuration.Duration < 0 || c.Agents.ProjectileLifetime.Duration < 0:
		return fmt.Errorf("%w: agents.shot_duration and agents.projectile_lifetime must not be negative", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Behaviors))
	for i, b := range c.Behaviors {
		if b.Name == "" || b.Type == "" || b.Expression == "" {
			return fmt.Errorf("%w: behaviors[%d] needs name, type and expression", ErrInvalid, i)
		}
		if seen[b.Name] {
			return fmt.Errorf("%w: duplicate behavior %q", ErrInvalid, b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

// GenConfig returns the POI scatter settings.
func (c Config) GenConfig() world.GenConfig {
	gen := world.DefaultGenConfig()
	gen.Seed = c.Seed
	gen.Count = c.POI.Count
	gen.Radius = c.POI.Radius
	gen.MinSpacing = c.POI.MinSpacing
	gen.Threshold = c.POI.Threshold
	return gen
}

// AgentConfig compiles the configured behaviors and returns the agent setup.
func (c Config) AgentConfig() (engine.AgentConfig, error) {
	ac := engine.AgentConfig{
		Count:       c.Agents.Count,
		SpawnRadius: c.Agents.SpawnRadius,
		Speed:       c.Agents.Speed,
		SightRadius: c.Agents.SightRadius,
		Interval:    c.Agents.Interval.Duration,
		DebugInfo:   c.Agents.DebugInfo,
		Projectile:  c.Agents.Projectile,

		ShotDuration:       c.Agents.ShotDuration.Duration,
		ProjectileLifetime: c.Agents.ProjectileLifetime.Duration,
	}
	for _, bc := range c.Behaviors {
		b, err := behavior.NewExpr(bc.Name, bc.Type, bc.Expression, bc.Speed)
		if err != nil {
			return engine.AgentConfig{}, err
		}
		if bc.Key != "" {
			b.Key = bc.Key
		}
		b.TrackLive = bc.TrackLive
		ac.Extra = append(ac.Extra, b)
	}
	return ac, nil
}
