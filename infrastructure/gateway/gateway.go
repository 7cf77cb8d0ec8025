package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/tool"
	"github.com/helixforge/labrun/infrastructure/logging"
)

// Config tunes the gateway's resilience stack.
type Config struct {
	// DefaultTimeout applies to tools that do not declare their own.
	DefaultTimeout time.Duration

	// MaxConcurrent limits concurrent tool executions.
	MaxConcurrent int

	// BreakerThreshold is the number of consecutive failures before the
	// circuit opens. BreakerTimeout is how long it stays open.
	BreakerThreshold int
	BreakerTimeout   time.Duration

	// RetryMaxAttempts and RetryInitialDelay govern retries of read-only
	// tools. Mutating tools are never retried.
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:    60 * time.Second,
		MaxConcurrent:     8,
		BreakerThreshold:  5,
		BreakerTimeout:    30 * time.Second,
		RetryMaxAttempts:  3,
		RetryInitialDelay: 200 * time.Millisecond,
	}
}

// Gateway resolves tool names against a registry and executes them under the
// invoking role's capability grants.
type Gateway struct {
	registry tool.Registry
	bulkhead bulkhead.Bulkhead[tool.Result]
	breaker  circuitbreaker.CircuitBreaker[tool.Result]
	retry    retry.Retry[tool.Result]
	timeout  time.Duration
}

// New creates a gateway over the given registry.
func New(registry tool.Registry, config Config) *Gateway {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultConfig().MaxConcurrent
	}
	threshold := config.BreakerThreshold
	if threshold <= 0 {
		threshold = DefaultConfig().BreakerThreshold
	}
	timeout := config.DefaultTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().DefaultTimeout
	}

	return &Gateway{
		registry: registry,
		bulkhead: bulkhead.New[tool.Result](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[tool.Result](circuitbreaker.Config{
			MaxRequests: uint32(maxConcurrent), // #nosec G115 -- bounds checked above
			Interval:    config.BreakerTimeout,
			Timeout:     config.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[tool.Result](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
		}),
		timeout: timeout,
	}
}

// Registry exposes the underlying registry, for capability validation and
// prompt assembly.
func (g *Gateway) Registry() tool.Registry {
	return g.registry
}

// Invoke executes the named tool on behalf of the given role. The role must
// hold the capability, the tool must exist, and the input must satisfy the
// tool's schema. A deadline overrun surfaces as ErrExecutionTimeout naming
// the tool, never as a hang.
func (g *Gateway) Invoke(ctx context.Context, role agent.RoleConfig, name string, input json.RawMessage) (tool.Result, error) {
	if !role.CanInvoke(name) {
		return tool.Result{}, fmt.Errorf("%w: role %s, tool %s", tool.ErrNotPermitted, role.Name, name)
	}

	t, ok := g.registry.Get(name)
	if !ok {
		return tool.Result{}, fmt.Errorf("%w: %s", tool.ErrToolNotFound, name)
	}

	if input == nil {
		input = json.RawMessage(`{}`)
	}
	if err := t.InputSchema().Validate(input); err != nil {
		return tool.Result{}, fmt.Errorf("%w: %s: %v", tool.ErrInvalidInput, name, err)
	}

	timeout := t.Timeout()
	if timeout <= 0 {
		timeout = g.timeout
	}

	start := time.Now()
	result, err := g.bulkhead.Execute(ctx, func(ctx context.Context) (tool.Result, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return g.breaker.Execute(ctx, func(ctx context.Context) (tool.Result, error) {
			if t.ReadOnly() {
				return g.retry.Do(ctx, func(ctx context.Context) (tool.Result, error) {
					return t.Execute(ctx, input)
				})
			}
			return t.Execute(ctx, input)
		})
	})
	elapsed := time.Since(start)

	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s after %v", tool.ErrExecutionTimeout, name, timeout)
	}

	logging.Debug().
		Add(logging.ToolName(name)).
		Add(logging.Role(role.Name)).
		Add(logging.Duration(elapsed)).
		Add(logging.ErrorField(err)).
		Msg("tool invoked")

	if err != nil {
		return tool.Result{}, err
	}
	return result.WithDuration(elapsed), nil
}
