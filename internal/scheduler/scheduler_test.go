package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunRequiresJobs(t *testing.T) {
	s := New(zerolog.Nop())
	if err := s.Run(context.Background(), func(ctx context.Context, due []string, startup bool) error { return nil }); err == nil {
		t.Fatal("empty scheduler should refuse to run")
	}
}

func TestFirstCycleIsStartupWithAllJobs(t *testing.T) {
	s := New(zerolog.Nop())
	s.Add("check", time.Hour)
	s.Add("report", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var firstDue []string
	firstStartup := false

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx, func(ctx context.Context, due []string, startup bool) error {
			mu.Lock()
			if firstDue == nil {
				firstDue = append([]string(nil), due...)
				firstStartup = startup
			}
			mu.Unlock()
			cancel()
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not run the immediate first cycle")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(firstDue) != 2 {
		t.Fatalf("first cycle due = %v, want both jobs", firstDue)
	}
	if !firstStartup {
		t.Fatal("first cycle must be flagged as startup")
	}
}

func TestJobsRecurAndErrorsDoNotStopLoop(t *testing.T) {
	s := New(zerolog.Nop())
	s.Add("check", 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var mu sync.Mutex
	cycles := 0
	startups := 0

	err := s.Run(ctx, func(ctx context.Context, due []string, startup bool) error {
		mu.Lock()
		cycles++
		if startup {
			startups++
		}
		mu.Unlock()
		return errors.New("tick failed")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v, want context deadline", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if cycles < 3 {
		t.Fatalf("cycles = %d, want the loop to continue across failures", cycles)
	}
	if startups != 1 {
		t.Fatalf("startups = %d, want exactly one", startups)
	}
}

func TestIndependentCadences(t *testing.T) {
	s := New(zerolog.Nop())
	s.Add("fast", 15*time.Millisecond)
	s.Add("slow", 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	var mu sync.Mutex
	counts := map[string]int{}

	_ = s.Run(ctx, func(ctx context.Context, due []string, startup bool) error {
		mu.Lock()
		for _, name := range due {
			counts[name]++
		}
		mu.Unlock()
		return nil
	})

	mu.Lock()
	defer mu.Unlock()
	if counts["slow"] != 1 {
		t.Fatalf("slow job ran %d times, want only the startup cycle", counts["slow"])
	}
	if counts["fast"] < 3 {
		t.Fatalf("fast job ran %d times, want several", counts["fast"])
	}
}
