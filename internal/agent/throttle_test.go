package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/veridraft/internal/model"
	"github.com/ppiankov/veridraft/internal/worker"
)

// countingAgent records invocations under a fixed provider name
type countingAgent struct {
	name string
	mu   sync.Mutex
	n    int
}

func (c *countingAgent) Name() string { return c.name }

func (c *countingAgent) IsAvailable(ctx context.Context) bool { return true }

func (c *countingAgent) Invoke(ctx context.Context, req Request) (Response, error) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return Response{Outputs: map[string]string{req.OutputField: "ok"}}, nil
}

func (c *countingAgent) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestThrottled_PacesInvocations(t *testing.T) {
	// 50 rps, burst 1: of three calls, two must wait ~20ms each.
	limiter := worker.NewLimiter(50, 1)
	inner := &countingAgent{name: "openai"}
	a := Throttled(inner, limiter)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := a.Invoke(context.Background(), Request{OutputField: "out"}); err != nil {
			t.Fatalf("Invoke failed: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected rate limiting to pace invocations, 3 calls took %v", elapsed)
	}
	if inner.calls() != 3 {
		t.Errorf("expected 3 delegated calls, got %d", inner.calls())
	}
}

func TestThrottled_ConcurrentCallersShareLimit(t *testing.T) {
	// Four goroutines against one limiter: burst 1 forces serialization.
	limiter := worker.NewLimiter(100, 1)
	inner := &countingAgent{name: "openai"}
	a := Throttled(inner, limiter)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Invoke(context.Background(), Request{OutputField: "out"})
		}()
	}
	wg.Wait()

	// Three of the four calls wait ~10ms each behind the shared limiter.
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected concurrent calls to share the rate limit, 4 calls took %v", elapsed)
	}
	if inner.calls() != 4 {
		t.Errorf("expected 4 delegated calls, got %d", inner.calls())
	}
}

func TestThrottled_CancelledContext(t *testing.T) {
	// Exhaust the burst, then invoke with a cancelled context: the wait
	// fails and the provider is never called.
	limiter := worker.NewLimiter(0.01, 1)
	inner := &countingAgent{name: "openai"}
	a := Throttled(inner, limiter)

	if _, err := a.Invoke(context.Background(), Request{OutputField: "out"}); err != nil {
		t.Fatalf("first Invoke failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Invoke(ctx, Request{OutputField: "out"}); err == nil {
		t.Fatal("expected error from cancelled wait, got nil")
	}
	if inner.calls() != 1 {
		t.Errorf("expected provider untouched after cancelled wait, got %d calls", inner.calls())
	}
}

func TestNewRegistry_ThrottlesConfiguredRate(t *testing.T) {
	cfg := model.DefaultConfig()
	for name, stageCfg := range cfg.Stages {
		stageCfg.Provider = "ollama"
		stageCfg.Model = "llama3.1"
		cfg.Stages[name] = stageCfg
	}
	cfg.Concurrency.RequestsPerSecond = 1
	cfg.Concurrency.Burst = 1

	r, err := NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	a, err := r.Get(model.StageDraft)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, ok := a.(*throttled); !ok {
		t.Errorf("expected throttled agent for configured rate, got %T", a)
	}
	if a.Name() != "ollama" {
		t.Errorf("expected provider name preserved, got %s", a.Name())
	}

	// Rate 0 disables throttling
	cfg.Concurrency.RequestsPerSecond = 0
	r, err = NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	a, _ = r.Get(model.StageDraft)
	if _, ok := a.(*throttled); ok {
		t.Error("expected bare agent when no rate is configured")
	}
}
