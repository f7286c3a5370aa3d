package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"ring-arena/internal/api"
	"ring-arena/internal/config"
	"ring-arena/internal/game"
	"ring-arena/internal/render"
	"ring-arena/internal/telemetry"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  RING ARENA - COMBAT ENGINE")
	log.Println("🎮 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	simCfg := appConfig.Sim
	serverCfg := appConfig.Server
	obsCfg := appConfig.Observability

	log.Printf("🎮 Config: %d steps/s, seed %d, %.0fx%.0f world, %d workers",
		simCfg.StepsPerSecond, simCfg.WorldSeed, simCfg.WorldWidth, simCfg.WorldHeight, simCfg.Workers)

	engine := game.NewEngine(game.EngineConfigFrom(appConfig))
	limits := appConfig.Limits
	log.Printf("🛡️ Resource limits: %d targets, %d projectiles, %d spawns/step",
		limits.MaxTargets, limits.MaxProjectiles, limits.MaxSpawnsPerStep)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Health-changed notifications fan out to WebSocket clients
	feed := telemetry.NewHealthFeed(obsCfg.FeedBuffer)
	engine.AddSink(feed)
	go feed.Run(ctx, 50*time.Millisecond)

	if obsCfg.EventLogPath != "" {
		if err := engine.StartEventLog(obsCfg.EventLogPath); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", obsCfg.EventLogPath)
		}
	}
	go reportEventLog(ctx, engine)

	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(obsCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	renderer := render.NewRenderer(int(simCfg.WorldWidth), int(simCfg.WorldHeight), float64(appConfig.Spatial.GridCellSize))
	server := api.NewServer(engine, feed, renderer, serverCfg)

	engine.Start()
	log.Println("✅ Combat engine started")

	if os.Getenv("DEMO_SCENARIO") == "true" {
		go runDemo(ctx, engine, game.DefaultScenario(simCfg.WorldSeed), simCfg.StepsPerSecond)
		log.Println("🎯 Demo scenario running")
	}

	// Start API server in goroutine
	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)
		if serverCfg.AdminToken == "" {
			log.Println("⚠️ ADMIN_TOKEN not set - input injection routes disabled")
		}

		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	engine.Stop()
	engine.StopEventLog()
	log.Println("👋 Goodbye!")
}

// runDemo feeds the scenario's inputs to a free-running engine, one step
// ahead of the current step.
func runDemo(ctx context.Context, engine *game.Engine, sc game.Scenario, stepsPerSecond int) {
	ticker := time.NewTicker(time.Second / time.Duration(max(stepsPerSecond, 1)))
	defer ticker.Stop()

	last := uint64(0)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			next := engine.CurrentStep() + 1
			if next == last {
				continue
			}
			last = next
			if in := sc.Input(next); !in.Empty() {
				engine.Submit(in)
			}
		}
	}
}

// reportEventLog mirrors event log counters into Prometheus
func reportEventLog(ctx context.Context, engine *game.Engine) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := engine.GetEventLogStats()
			total, _ := stats["total"].(uint64)
			dropped, _ := stats["dropped"].(uint64)
			telemetry.UpdateEventLogStats(total, dropped)
		}
	}
}
