package concord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/concord/pkg/flows/intent"
	"github.com/aretw0/concord/pkg/flows/schema"
	"github.com/aretw0/concord/internal/logging"
	"github.com/aretw0/concord/internal/runtime"
	"github.com/aretw0/concord/pkg/adapters/heuristic"
	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/ports"
	"github.com/aretw0/concord/pkg/session"
	"github.com/aretw0/concord/pkg/tooling"
)

// IntentAgentFactory builds the goal capability for one session run.
type IntentAgentFactory func(state *domain.SessionState) intent.Agent

// ProposerFactory builds the schema proposing capability for one session
// run. Factories receive the session state so tool-using capabilities can
// read the uploads.
type ProposerFactory func(state *domain.SessionState) schema.Proposer

// CriticFactory builds the schema critic capability for one session run.
type CriticFactory func(state *domain.SessionState) schema.Critic

// Engine is the high-level entry point: it owns the session manager, the
// tool registry and the capability factories, and runs the negotiation
// workflow for one session at a time.
type Engine struct {
	manager *session.Manager
	store   ports.StateStore
	locker  ports.DistributedLocker
	tools   *tooling.Registry
	hooks   domain.LifecycleHooks
	logger  *slog.Logger

	goalBudget   int
	schemaBudget int
	reviewBudget int

	intentAgent IntentAgentFactory
	proposer    ProposerFactory
	critic      CriticFactory
}

// Option configures the Engine.
type Option func(*Engine)

// WithStore sets the session state store (default: in-memory).
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithLocker enables cross-replica session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = locker }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTools replaces the default tool registry.
func WithTools(tools *tooling.Registry) Option {
	return func(e *Engine) { e.tools = tools }
}

// WithGoalBudget bounds the goal negotiation loop.
func WithGoalBudget(n int) Option {
	return func(e *Engine) { e.goalBudget = n }
}

// WithSchemaBudget bounds the outer schema negotiation loop.
func WithSchemaBudget(n int) Option {
	return func(e *Engine) { e.schemaBudget = n }
}

// WithReviewBudget bounds the inner proposer/critic loop.
func WithReviewBudget(n int) Option {
	return func(e *Engine) { e.reviewBudget = n }
}

// WithIntentAgent replaces the default rule-based goal capability.
func WithIntentAgent(factory IntentAgentFactory) Option {
	return func(e *Engine) { e.intentAgent = factory }
}

// WithProposer replaces the default rule-based schema capability.
func WithProposer(factory ProposerFactory) Option {
	return func(e *Engine) { e.proposer = factory }
}

// WithCritic replaces the default rule-based critic capability.
func WithCritic(factory CriticFactory) Option {
	return func(e *Engine) { e.critic = factory }
}

// New creates an Engine. Without options it runs fully in memory with the
// rule-based capabilities.
func New(opts ...Option) *Engine {
	e := &Engine{
		tools:  tooling.NewRegistry(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.intentAgent == nil {
		e.intentAgent = func(*domain.SessionState) intent.Agent {
			return heuristic.NewIntentAgent()
		}
	}
	if e.proposer == nil {
		e.proposer = func(state *domain.SessionState) schema.Proposer {
			return heuristic.NewProposer(e.tools, state)
		}
	}
	if e.critic == nil {
		e.critic = func(*domain.SessionState) schema.Critic {
			return heuristic.NewCritic()
		}
	}

	managerOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(e.locker))
	}
	e.manager = session.NewManager(e.store, managerOpts...)
	return e
}

// Sessions exposes the session manager for transports and CLIs.
func (e *Engine) Sessions() *session.Manager {
	return e.manager
}

// Tools exposes the engine's tool registry so callers can register extras.
func (e *Engine) Tools() *tooling.Registry {
	return e.tools
}

// StartSession creates and persists a new empty session, returning its ID.
func (e *Engine) StartSession(ctx context.Context, artifacts ...domain.CSVFile) (string, error) {
	id := session.NewID()
	state := domain.NewSessionState()
	for _, f := range artifacts {
		state.AddCSV(f)
	}
	if err := e.manager.Save(ctx, id, state); err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	return id, nil
}

// AttachDoc registers an unstructured artifact with an existing session.
// Docs are reference material for capabilities; they never gate the
// negotiation the way structured artifacts do.
func (e *Engine) AttachDoc(ctx context.Context, sessionID string, doc domain.DocFile) error {
	return e.manager.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := e.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		state.AddDoc(doc)
		return e.store.Save(ctx, sessionID, state)
	})
}

// Run drives the negotiation workflow for one session over the given
// channel: goal first, then schema, each stage skipped if its slot is
// already committed. The session state is persisted when the run ends,
// including after a budget exhaustion, so an approved goal survives a
// failed schema negotiation.
func (e *Engine) Run(ctx context.Context, sessionID string, channel ports.Channel, opening string) error {
	return e.manager.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := e.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		sc := runtime.NewScope(sessionID, state, channel)
		sc.Logger = e.logger
		sc.Hooks = e.hooks

		workflow := &runtime.Workflow{
			Name: "negotiate",
			Stages: []runtime.Stage{
				intent.Stage(e.intentAgent(state), e.goalBudget),
				schema.Stage(schema.Config{
					Proposer:            e.proposer(state),
					Critic:              e.critic(state),
					MaxIterations:       e.schemaBudget,
					ReviewMaxIterations: e.reviewBudget,
				}),
			},
		}

		runErr := workflow.Run(ctx, sc, opening)
		if saveErr := e.store.Save(ctx, sessionID, state); saveErr != nil {
			if runErr != nil {
				e.logger.Error("failed to persist session after run error",
					"session_id", sessionID, "err", saveErr)
				return runErr
			}
			return fmt.Errorf("persist session: %w", saveErr)
		}
		return runErr
	})
}
