package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

// NewHTTPOperation binds a normalized request to the adapter registry and
// returns the operation the orchestrator executes. The returned closure is
// invoked once per attempt with the provider chosen for that attempt, so a
// single request can land on different backends across a failover sequence.
func NewHTTPOperation(router Router, client *http.Client, req *transport.Request) transport.Operation {
	return func(ctx context.Context, provider string) (*transport.Response, error) {
		adapter, err := router.Pick(provider)
		if err != nil {
			return nil, err
		}

		httpReq, err := adapter.Build(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%s: build request: %w", provider, err)
		}

		start := time.Now()
		httpResp, err := client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", provider, err)
		}
		defer httpResp.Body.Close()

		resp, err := adapter.Parse(httpResp)
		if err != nil {
			return nil, err
		}

		resp.Usage.LatencyMs = time.Since(start).Milliseconds()
		return resp, nil
	}
}
