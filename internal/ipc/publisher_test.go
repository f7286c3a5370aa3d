package ipc

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ring-arena/internal/game"
)

func TestPublisherToSubscriber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.sock")

	pub := NewPublisher(path)
	pub.SetHello(Hello{WorldSeed: 9, StepsPerSecond: 30, Scenario: "default"})
	if err := pub.Start(); err != nil {
		t.Fatal(err)
	}
	defer pub.Stop()

	var mu sync.Mutex
	var got []Digest
	sub := NewSubscriber(path)
	sub.OnDigest(func(d Digest) {
		mu.Lock()
		got = append(got, d)
		mu.Unlock()
	})
	if err := sub.Start(); err != nil {
		t.Fatal(err)
	}
	defer sub.Stop()

	hello, ok := sub.WaitForHello(3 * time.Second)
	if !ok {
		t.Fatal("Expected hello")
	}
	if hello.WorldSeed != 9 || hello.Scenario != "default" {
		t.Errorf("unexpected hello %+v", hello)
	}
	if !pub.WaitForClients(1, 3*time.Second) {
		t.Fatal("Expected publisher to see the subscriber")
	}

	for step := uint64(1); step <= 5; step++ {
		pub.Publish(Digest{Step: step, Hash: step * 11})
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 5 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected 5 digests, got %d", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, d := range got {
		if d.Step != uint64(i+1) || d.Hash != d.Step*11 {
			t.Errorf("digest %d out of order: %+v", i, d)
		}
	}
	if latest, ok := sub.Latest(); !ok || latest.Step != 5 {
		t.Errorf("Expected latest step 5, got %+v", latest)
	}
}

func TestPublishWhenStoppedIsNoop(t *testing.T) {
	pub := NewPublisher(filepath.Join(t.TempDir(), "idle.sock"))
	pub.Publish(Digest{Step: 1})
	if _, sent, dropped := pub.GetStats(); sent != 0 || dropped != 0 {
		t.Errorf("Expected no activity, got sent=%d dropped=%d", sent, dropped)
	}
}

func TestVerifierAcceptsMatchingPeer(t *testing.T) {
	sc := game.DefaultScenario(5)
	remote := game.NewEngine(game.DefaultEngineConfig())
	v := NewVerifier(game.NewEngine(game.DefaultEngineConfig()), sc)

	var digests []Digest
	for i := 0; i < 60; i++ {
		remote.Step(sc.Input(remote.CurrentStep() + 1))
		digests = append(digests, DigestOf(remote))
	}

	// every third digest, newest first: the verifier catches up and looks back
	for i := len(digests) - 1; i >= 0; i -= 3 {
		if err := v.Check(digests[i]); err != nil {
			t.Fatalf("unexpected desync: %v", err)
		}
	}
	checked, mismatches := v.Stats()
	if checked != 20 || mismatches != 0 {
		t.Errorf("Expected 20 clean checks, got %d/%d", checked, mismatches)
	}
}

func TestVerifierDetectsDesync(t *testing.T) {
	cfg := game.DefaultEngineConfig()
	cfg.Sim.WorldSeed = 5
	sc := game.DefaultScenario(5)
	v := NewVerifier(game.NewEngine(cfg), sc)

	other := cfg
	other.Sim.WorldSeed = 6
	remote := game.NewEngine(other)

	var desync *Desync
	for i := 0; i < 300; i++ {
		remote.Step(sc.Input(remote.CurrentStep() + 1))
		if err := v.Check(DigestOf(remote)); err != nil {
			if !errors.As(err, &desync) {
				t.Fatalf("Expected *Desync, got %T", err)
			}
			break
		}
	}
	if desync == nil {
		t.Fatal("Expected a desync between peers with different world seeds")
	}
	if desync.Step != 1 {
		t.Errorf("Expected desync on the first step, got %d", desync.Step)
	}
	if desync.Local.Step != desync.Step || desync.Remote.Step != desync.Step {
		t.Errorf("desync digests disagree on step: %+v", desync)
	}
}
