package application

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/notebook"
)

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithGenerator sets the turn generator for every participant.
func WithGenerator(g agent.Generator) Option {
	return func(o *Orchestrator) {
		o.generator = g
	}
}

// WithToolInvoker sets the tool gateway.
func WithToolInvoker(t ToolInvoker) Option {
	return func(o *Orchestrator) {
		o.tools = t
	}
}

// WithStore sets the notebook store.
func WithStore(s notebook.Store) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithTracer sets the tracer for run, chat, and turn spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}
