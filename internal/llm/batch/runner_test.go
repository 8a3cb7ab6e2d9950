package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheridan/go-arbiter/internal/llm/fallback"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

// fakeExecutor records concurrency and returns canned responses.
type fakeExecutor struct {
	mu          sync.Mutex
	inFlight    int
	maxObserved int
	calls       atomic.Int32
	delay       time.Duration
}

func (f *fakeExecutor) Execute(ctx context.Context, req *transport.Request, opts ...fallback.Option) *fallback.Response {
	f.calls.Add(1)

	if ctx.Err() != nil {
		return &fallback.Response{Degraded: true}
	}

	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxObserved {
		f.maxObserved = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	return &fallback.Response{
		Content:      &transport.Response{Content: "echo: " + req.Prompt},
		ProviderUsed: "test",
		Success:      true,
		AttemptsMade: 1,
	}
}

func makeRequests(n int) []*transport.Request {
	reqs := make([]*transport.Request, n)
	for i := range reqs {
		reqs[i] = &transport.Request{
			Operation: transport.OpGeneration,
			Prompt:    fmt.Sprintf("prompt %d", i),
		}
	}
	return reqs
}

func TestRunnerPreservesOrder(t *testing.T) {
	exec := &fakeExecutor{}
	runner := NewRunner(exec, 4)

	reqs := makeRequests(10)
	results := runner.Run(context.Background(), reqs)

	require.Len(t, results, 10)
	for i, res := range results {
		require.NotNil(t, res.Response, "result %d missing", i)
		assert.Equal(t, fmt.Sprintf("echo: prompt %d", i), res.Response.Content.Content)
		assert.Same(t, reqs[i], res.Request)
	}
	assert.Equal(t, int32(10), exec.calls.Load())
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	exec := &fakeExecutor{delay: 20 * time.Millisecond}
	runner := NewRunner(exec, 3)

	runner.Run(context.Background(), makeRequests(12))

	assert.LessOrEqual(t, exec.maxObserved, 3, "in-flight requests must respect the ceiling")
	assert.Greater(t, exec.maxObserved, 1, "runner should actually parallelize")
}

func TestRunnerMinimumConcurrencyOfOne(t *testing.T) {
	exec := &fakeExecutor{}
	runner := NewRunner(exec, 0)

	results := runner.Run(context.Background(), makeRequests(3))
	require.Len(t, results, 3)
	assert.Equal(t, 1, exec.maxObserved)
}

func TestRunnerCancelledContext(t *testing.T) {
	exec := &fakeExecutor{}
	runner := NewRunner(exec, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := runner.Run(ctx, makeRequests(5))
	require.Len(t, results, 5)
	for i, res := range results {
		require.NotNil(t, res.Response, "result %d must still be populated", i)
		assert.True(t, res.Response.Degraded)
	}
}

func TestRunnerEmptyBatch(t *testing.T) {
	runner := NewRunner(&fakeExecutor{}, 2)
	results := runner.Run(context.Background(), nil)
	assert.Empty(t, results)
}
