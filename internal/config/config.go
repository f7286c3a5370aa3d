// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for simulation, combat and server settings.
//
// IMPORTANT: Every peer in a lockstep session must run with identical Sim and
// Combat sections. Server and Observability settings are local to a process.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the lockstep simulation settings.
type SimConfig struct {
	StepsPerSecond int     // Fixed step rate; also scales DoT projectile damage
	WorldSeed      uint64  // Root of every gameplay random stream
	WorldWidth     float64 // Arena bounds in world units
	WorldHeight    float64
	Workers        int // Resolver workers, 0 = GOMAXPROCS
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		StepsPerSecond: 30,
		WorldSeed:      1,
		WorldWidth:     1280,
		WorldHeight:    720,
		Workers:        0,
	}
}

// SimFromEnv returns simulation configuration with environment variable overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if v := getEnvInt("SIM_STEPS_PER_SECOND", 0); v > 0 {
		cfg.StepsPerSecond = v
	}
	if v := getEnvUint64("SIM_WORLD_SEED", 0); v > 0 {
		cfg.WorldSeed = v
	}
	if v := getEnvFloat("SIM_WORLD_WIDTH", 0); v > 0 {
		cfg.WorldWidth = v
	}
	if v := getEnvFloat("SIM_WORLD_HEIGHT", 0); v > 0 {
		cfg.WorldHeight = v
	}
	if v := getEnvInt("SIM_WORKERS", -1); v >= 0 {
		cfg.Workers = v
	}

	return cfg
}

// =============================================================================
// COMBAT CONFIGURATION
// =============================================================================

// CombatConfig holds the balance constants of the resolution pipeline.
type CombatConfig struct {
	HitCap             int     // Per-step hit collector cap, clamped to the fixed buffer
	SubdivideDelay     int     // Steps from first subdivide hit to burst
	SubdivideBurst     int     // Burst damage per accrued subdivide point
	DegeneratePerPoint float64 // Damage multiplier slope per degenerate point
	LoopMax            int     // Loop-trigger depth cap
	SeekOffset         float64 // Secondary spawn seek distance
	SeekRadius         float64 // Secondary spawn nearest-target radius
}

// DefaultCombat returns the shipped balance values.
func DefaultCombat() CombatConfig {
	return CombatConfig{
		HitCap:             8,
		SubdivideDelay:     30, // one second at 30 steps/s
		SubdivideBurst:     3,
		DegeneratePerPoint: 0.02, // +2% per point, x6.1 at saturation
		LoopMax:            3,
		SeekOffset:         48,
		SeekRadius:         160,
	}
}

// CombatFromEnv returns combat configuration with environment variable overrides.
func CombatFromEnv() CombatConfig {
	cfg := DefaultCombat()

	if v := getEnvInt("COMBAT_HIT_CAP", 0); v > 0 {
		cfg.HitCap = v
	}
	if v := getEnvInt("COMBAT_SUBDIVIDE_DELAY", 0); v > 0 {
		cfg.SubdivideDelay = v
	}
	if v := getEnvInt("COMBAT_SUBDIVIDE_BURST", 0); v > 0 {
		cfg.SubdivideBurst = v
	}
	if v := getEnvFloat("COMBAT_DEGENERATE_PER_POINT", -1); v >= 0 {
		cfg.DegeneratePerPoint = v
	}
	if v := getEnvInt("COMBAT_LOOP_MAX", -1); v >= 0 {
		cfg.LoopMax = v
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits caps every per-step allocation. Overflow is dropped, never queued.
type ResourceLimits struct {
	MaxTargets             int // Live targets in the arena
	MaxProjectiles         int // Live projectiles
	MaxSpawnsPerStep       int // Deferred projectile spawns applied per step
	MaxSnapshotTargets     int // Targets copied into each published snapshot
	MaxSnapshotProjectiles int // Projectiles copied into each published snapshot
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxTargets:             4096,
		MaxProjectiles:         2048,
		MaxSpawnsPerStep:       256,
		MaxSnapshotTargets:     500,
		MaxSnapshotProjectiles: 500,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string // CORS and websocket origin allow-list
	RateLimit      float64  // Requests per second per IP
	RateBurst      int
	MaxWSPerIP     int
	AdminToken     string // Bearer token for /api/admin, empty disables the routes
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
		AllowedOrigins: []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		},
		RateLimit:  10,
		RateBurst:  20,
		MaxWSPerIP: 5,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if o := os.Getenv("ALLOWED_ORIGINS"); o != "" {
		cfg.AllowedOrigins = splitList(o)
	}
	if v := getEnvFloat("RATE_LIMIT", 0); v > 0 {
		cfg.RateLimit = v
	}
	if v := getEnvInt("RATE_BURST", 0); v > 0 {
		cfg.RateBurst = v
	}
	if v := getEnvInt("MAX_WS_PER_IP", 0); v > 0 {
		cfg.MaxWSPerIP = v
	}
	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")

	return cfg
}

// =============================================================================
// SPATIAL CONFIGURATION
// =============================================================================

// SpatialConfig holds spatial indexing settings.
type SpatialConfig struct {
	GridCellSize int // Broad-phase cell size in world units
}

// DefaultSpatial returns the default spatial configuration.
func DefaultSpatial() SpatialConfig {
	return SpatialConfig{
		GridCellSize: 64,
	}
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// ObservabilityConfig holds debug server, event log and feed settings.
type ObservabilityConfig struct {
	DebugPort    int    // pprof and /metrics, 0 disables
	DebugUser    string // optional basic auth for the debug server
	DebugPass    string
	EventLogPath string // NDJSON event log, empty keeps events in memory only
	FeedBuffer   int    // health-changed notification ring capacity
}

// DefaultObservability returns the default observability configuration.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		DebugPort:  6060,
		FeedBuffer: 4096,
	}
}

// ObservabilityFromEnv returns observability configuration with environment overrides.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := DefaultObservability()

	if v := getEnvInt("DEBUG_PORT", -1); v >= 0 {
		cfg.DebugPort = v
	}
	cfg.DebugUser = os.Getenv("DEBUG_USER")
	cfg.DebugPass = os.Getenv("DEBUG_PASS")
	cfg.EventLogPath = os.Getenv("EVENT_LOG_PATH")
	if v := getEnvInt("FEED_BUFFER", 0); v > 0 {
		cfg.FeedBuffer = v
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim           SimConfig
	Combat        CombatConfig
	Limits        ResourceLimits
	Server        ServerConfig
	Spatial       SpatialConfig
	Observability ObservabilityConfig
}

// Default returns the complete configuration without environment overrides.
func Default() AppConfig {
	return AppConfig{
		Sim:           DefaultSim(),
		Combat:        DefaultCombat(),
		Limits:        DefaultLimits(),
		Server:        DefaultServer(),
		Spatial:       DefaultSpatial(),
		Observability: DefaultObservability(),
	}
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:           SimFromEnv(),
		Combat:        CombatFromEnv(),
		Limits:        DefaultLimits(),
		Server:        ServerFromEnv(),
		Spatial:       DefaultSpatial(),
		Observability: ObservabilityFromEnv(),
	}
}

// Validate reports every setting that would make the simulation misbehave.
func (c AppConfig) Validate() error {
	var errs []error

	if c.Sim.StepsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("sim: steps per second must be positive, got %d", c.Sim.StepsPerSecond))
	}
	if c.Sim.WorldWidth <= 0 || c.Sim.WorldHeight <= 0 {
		errs = append(errs, fmt.Errorf("sim: world size must be positive, got %vx%v", c.Sim.WorldWidth, c.Sim.WorldHeight))
	}
	if c.Sim.Workers < 0 {
		errs = append(errs, fmt.Errorf("sim: workers must not be negative, got %d", c.Sim.Workers))
	}
	if c.Combat.HitCap <= 0 {
		errs = append(errs, fmt.Errorf("combat: hit cap must be positive, got %d", c.Combat.HitCap))
	}
	if c.Combat.SubdivideDelay < 0 || c.Combat.SubdivideBurst < 0 {
		errs = append(errs, errors.New("combat: subdivide delay and burst must not be negative"))
	}
	if c.Combat.DegeneratePerPoint < 0 {
		errs = append(errs, fmt.Errorf("combat: degenerate slope must not be negative, got %v", c.Combat.DegeneratePerPoint))
	}
	if c.Combat.LoopMax < 0 {
		errs = append(errs, fmt.Errorf("combat: loop max must not be negative, got %d", c.Combat.LoopMax))
	}
	if c.Limits.MaxTargets <= 0 || c.Limits.MaxProjectiles <= 0 {
		errs = append(errs, errors.New("limits: target and projectile caps must be positive"))
	}
	if c.Spatial.GridCellSize <= 0 {
		errs = append(errs, fmt.Errorf("spatial: cell size must be positive, got %d", c.Spatial.GridCellSize))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server: invalid port %d", c.Server.Port))
	}

	return errors.Join(errs...)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvUint64(key string, defaultVal uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if u, err := strconv.ParseUint(v, 0, 64); err == nil {
			return u
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
