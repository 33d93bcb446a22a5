package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/domain"
)

type countState struct {
	Rounds int
	Trail  []string
}

func testScope() *Scope {
	return NewScope("sess-test", domain.NewSessionState(), memory.NewChannel())
}

func seedCount(_ context.Context, _ *Scope, trigger any) (countState, error) {
	opening, _ := trigger.(string)
	return countState{Trail: []string{opening}}, nil
}

func countingLoop(max, doneAt int) *Loop[countState] {
	return &Loop[countState]{
		Name:          "counting",
		MaxIterations: max,
		Seed:          seedCount,
		Steps: []Step[countState]{
			{Name: "count", Run: func(_ context.Context, _ *Scope, s countState) (countState, error) {
				s.Rounds++
				s.Trail = append(s.Trail, "round")
				return s, nil
			}},
		},
		Done: func(s countState) bool { return s.Rounds >= doneAt },
	}
}

func TestLoopRunsUntilDone(t *testing.T) {
	outcome, err := countingLoop(10, 3).Run(context.Background(), testScope(), "go")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionApproved, outcome.Decision)
	assert.Equal(t, 3, outcome.Iterations)
	assert.Equal(t, 3, outcome.State.Rounds)
}

func TestLoopCarriesStateAcrossIterations(t *testing.T) {
	outcome, err := countingLoop(10, 3).Run(context.Background(), testScope(), "opening")
	require.NoError(t, err)

	// Seed ran exactly once; every later iteration started from the prior
	// iteration's terminal output.
	assert.Equal(t, []string{"opening", "round", "round", "round"}, outcome.State.Trail)
}

func TestLoopExhaustsBudget(t *testing.T) {
	outcome, err := countingLoop(4, 100).Run(context.Background(), testScope(), "go")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionExhausted, outcome.Decision)
	assert.Equal(t, 4, outcome.Iterations)
	assert.Equal(t, 4, outcome.State.Rounds, "terminal state is the last iteration's carry-over")
}

func TestLoopDefaultBudget(t *testing.T) {
	outcome, err := countingLoop(0, 100).Run(context.Background(), testScope(), "go")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionExhausted, outcome.Decision)
	assert.Equal(t, DefaultMaxIterations, outcome.Iterations)
}

func TestLoopInstancesAreIsolated(t *testing.T) {
	build := func() *Loop[countState] { return countingLoop(10, 2) }

	first, err := build().Run(context.Background(), testScope(), "a")
	require.NoError(t, err)
	second, err := build().Run(context.Background(), testScope(), "b")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "round", "round"}, first.State.Trail)
	assert.Equal(t, []string{"b", "round", "round"}, second.State.Trail,
		"a fresh instance must not observe another instance's carry-over")
}

func TestLoopStepErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	loop := &Loop[countState]{
		Name: "failing",
		Seed: seedCount,
		Steps: []Step[countState]{
			{Name: "explode", Run: func(_ context.Context, _ *Scope, s countState) (countState, error) {
				return s, boom
			}},
		},
		Done: func(countState) bool { return false },
	}

	_, err := loop.Run(context.Background(), testScope(), "go")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `loop "failing"`)
	assert.Contains(t, err.Error(), `step "explode"`)
}

func TestLoopValidate(t *testing.T) {
	cases := []struct {
		name string
		loop *Loop[countState]
	}{
		{"no name", &Loop[countState]{Seed: seedCount, Done: func(countState) bool { return true },
			Steps: []Step[countState]{{Name: "s", Run: func(_ context.Context, _ *Scope, s countState) (countState, error) { return s, nil }}}}},
		{"no steps", &Loop[countState]{Name: "l", Seed: seedCount, Done: func(countState) bool { return true }}},
		{"no seed", &Loop[countState]{Name: "l", Done: func(countState) bool { return true },
			Steps: []Step[countState]{{Name: "s", Run: func(_ context.Context, _ *Scope, s countState) (countState, error) { return s, nil }}}}},
		{"no done", &Loop[countState]{Name: "l", Seed: seedCount,
			Steps: []Step[countState]{{Name: "s", Run: func(_ context.Context, _ *Scope, s countState) (countState, error) { return s, nil }}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.loop.Run(context.Background(), testScope(), "go")
			assert.Error(t, err)
		})
	}
}

func TestLoopFiresLifecycleHooks(t *testing.T) {
	sc := testScope()
	var iterations, steps []domain.EventType
	var end *domain.LoopEvent
	sc.Hooks = domain.LifecycleHooks{
		OnIterationStart: func(_ context.Context, e *domain.IterationEvent) { iterations = append(iterations, e.Type) },
		OnIterationEnd:   func(_ context.Context, e *domain.IterationEvent) { iterations = append(iterations, e.Type) },
		OnStepStart:      func(_ context.Context, e *domain.StepEvent) { steps = append(steps, e.Type) },
		OnStepEnd:        func(_ context.Context, e *domain.StepEvent) { steps = append(steps, e.Type) },
		OnLoopEnd:        func(_ context.Context, e *domain.LoopEvent) { end = e },
	}

	_, err := countingLoop(10, 2).Run(context.Background(), sc, "go")
	require.NoError(t, err)

	assert.Len(t, iterations, 4)
	assert.Len(t, steps, 4)
	require.NotNil(t, end)
	assert.Equal(t, "counting", end.Loop)
	assert.Equal(t, domain.DecisionApproved, end.Decision)
	assert.Equal(t, 2, end.Iterations)
}
