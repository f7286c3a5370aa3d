// Command lockstep checks that the combat pipeline is deterministic.
//
// Without flags it runs the same seeded scenario on two in-process engines
// with different resolver worker counts and compares their state hashes step
// by step. With -serve it runs one engine and publishes a digest per step
// over IPC; with -follow it replays the scenario locally and verifies every
// digest it receives. Any mode exits non-zero on the first divergence.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"ring-arena/internal/config"
	"ring-arena/internal/game"
	"ring-arena/internal/ipc"

	"golang.org/x/sync/errgroup"
)

const scenarioName = "default"

func main() {
	seed := flag.Uint64("seed", 1, "world seed")
	steps := flag.Int("steps", 600, "steps to simulate")
	workersA := flag.Int("workers-a", 1, "resolver workers on peer A")
	workersB := flag.Int("workers-b", 0, "resolver workers on peer B, 0 = GOMAXPROCS")
	every := flag.Int("print", 60, "print the hash every n steps, 0 = never")
	serve := flag.String("serve", "", "publish digests on this socket instead of running two local peers")
	follow := flag.String("follow", "", "verify digests published on this socket")
	rate := flag.Int("rate", 0, "steps per second when serving, 0 = as fast as possible")
	flag.Parse()

	appCfg := config.Default()
	appCfg.Sim.WorldSeed = *seed
	if err := appCfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	var err error
	switch {
	case *serve != "":
		err = runServe(appCfg, *serve, *steps, *rate, *workersA)
	case *follow != "":
		err = runFollow(appCfg, *follow, *steps, *workersA, *every)
	default:
		err = runLocal(appCfg, *steps, *workersA, *workersB, *every)
	}
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func newPeer(appCfg config.AppConfig, workers int) *game.Engine {
	cfg := game.EngineConfigFrom(appCfg)
	cfg.Sim.Workers = workers
	return game.NewEngine(cfg)
}

func scenario(appCfg config.AppConfig) game.Scenario {
	sc := game.DefaultScenario(appCfg.Sim.WorldSeed)
	sc.Width, sc.Height = appCfg.Sim.WorldWidth, appCfg.Sim.WorldHeight
	return sc
}

func runLocal(appCfg config.AppConfig, steps, workersA, workersB, every int) error {
	sc := scenario(appCfg)
	a, b := newPeer(appCfg, workersA), newPeer(appCfg, workersB)

	start := time.Now()
	var hashesA, hashesB []uint64
	var g errgroup.Group
	g.Go(func() error { hashesA = sc.Run(a, steps); return nil })
	g.Go(func() error { hashesB = sc.Run(b, steps); return nil })
	_ = g.Wait()
	elapsed := time.Since(start)

	for i := range hashesA {
		step := i + 1
		if hashesA[i] != hashesB[i] {
			return fmt.Errorf("desync at step %d: %016x != %016x", step, hashesA[i], hashesB[i])
		}
		if every > 0 && step%every == 0 {
			fmt.Printf("step %6d  %016x\n", step, hashesA[i])
		}
	}

	stats := a.LastStats()
	fmt.Printf("✅ %d steps in lockstep (seed %d, %d targets, %d projectiles live, %v)\n",
		steps, appCfg.Sim.WorldSeed, a.TargetCount(), a.ProjectileCount(), elapsed.Round(time.Millisecond))
	fmt.Printf("   last step: %d hits, %d health changes, %d procs, %d loop triggers\n",
		stats.Hits, stats.HealthChanges, stats.Procs, stats.LoopTriggers)
	return nil
}

func runServe(appCfg config.AppConfig, path string, steps, rate, workers int) error {
	pub := ipc.NewPublisher(path)
	pub.SetHello(ipc.Hello{
		WorldSeed:      appCfg.Sim.WorldSeed,
		StepsPerSecond: appCfg.Sim.StepsPerSecond,
		Scenario:       scenarioName,
	})
	if err := pub.Start(); err != nil {
		return fmt.Errorf("start publisher: %w", err)
	}
	defer pub.Stop()

	log.Printf("⏳ Waiting for a follower on %s", pub.Addr())
	if !pub.WaitForClients(1, time.Minute) {
		return errors.New("no follower connected")
	}

	var pace *time.Ticker
	if rate > 0 {
		pace = time.NewTicker(time.Second / time.Duration(rate))
		defer pace.Stop()
	}

	sc := scenario(appCfg)
	e := newPeer(appCfg, workers)
	for i := 0; i < steps; i++ {
		if pace != nil {
			<-pace.C
		}
		e.Step(sc.Input(e.CurrentStep() + 1))
		pub.Publish(ipc.DigestOf(e))
	}

	if !pub.Flush(5 * time.Second) {
		log.Println("⚠️ Some digests were not delivered")
	}
	// let the last writes drain before the socket closes
	time.Sleep(100 * time.Millisecond)

	_, sent, dropped := pub.GetStats()
	fmt.Printf("✅ Published %d digests (%d dropped)\n", sent, dropped)
	return nil
}

func runFollow(appCfg config.AppConfig, path string, steps, workers, every int) error {
	sub := ipc.NewSubscriber(path)

	// digests are verified on the read goroutine; results come back here
	results := make(chan error, 1)
	var verifier *ipc.Verifier
	ready := make(chan struct{})
	sub.OnDigest(func(d ipc.Digest) {
		<-ready
		err := verifier.Check(d)
		if err == nil && every > 0 && d.Step%uint64(every) == 0 {
			fmt.Printf("step %6d  %016x ✓\n", d.Step, d.Hash)
		}
		if err != nil || d.Step >= uint64(steps) {
			select {
			case results <- err:
			default:
			}
		}
	})

	if err := sub.Start(); err != nil {
		return fmt.Errorf("start subscriber: %w", err)
	}
	defer sub.Stop()

	hello, ok := sub.WaitForHello(time.Minute)
	if !ok {
		close(ready)
		return errors.New("no hello from publisher")
	}
	if hello.Scenario != scenarioName {
		close(ready)
		return fmt.Errorf("unknown scenario %q", hello.Scenario)
	}
	appCfg.Sim.WorldSeed = hello.WorldSeed
	verifier = ipc.NewVerifier(newPeer(appCfg, workers), scenario(appCfg))
	close(ready)

	select {
	case err := <-results:
		if err != nil {
			return err
		}
	case <-time.After(10 * time.Minute):
		return errors.New("timed out waiting for digests")
	}

	checked, _ := verifier.Stats()
	fmt.Printf("✅ Verified %d digests against the local replay (seed %d)\n", checked, hello.WorldSeed)
	return nil
}
