package operations

import (
	"context"
	"log/slog"
	"time"

	"banketl/internal/infrastructure"
)

// ProgressLogger records one line per completed stage
type ProgressLogger interface {
	Log(ctx context.Context, message string) error
}

// Manager orchestrates a run
type Manager struct {
	registry *Registry
	progress ProgressLogger
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewManager creates a new manager. A nil tracer records nothing and a nil
// logger uses slog.Default.
func NewManager(registry *Registry, progress ProgressLogger, tracer *OperationTracer, logger *slog.Logger) (*Manager, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	if tracer == nil {
		var err error
		if tracer, err = NewOperationTracer(nil); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry: registry,
		progress: progress,
		tracer:   tracer,
		logger:   logger.With(slog.String("component", "operations")),
	}, nil
}

// RegisterStep registers a Step; steps run in registration order
func (m *Manager) RegisterStep(step Step) error {
	return m.registry.Register(step)
}

// Tracer returns the instrumentation used by the manager and its steps
func (m *Manager) Tracer() *OperationTracer {
	return m.tracer
}

// Execute runs every registered step in order. The run stops at the first
// failure; steps after it are marked skipped and the error is returned as an
// *OperationError naming the failed step. Resources registered on the state
// are released before Execute returns, on every path.
func (m *Manager) Execute(ctx context.Context) (state *OperationState, err error) {
	ctx = infrastructure.EnsureRunID(ctx)
	state = NewOperationState(infrastructure.GetRunID(ctx))

	steps := m.registry.List()
	for _, step := range steps {
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, state.ID)
	defer span.End()

	defer func() {
		if closeErr := state.Close(); closeErr != nil {
			m.logger.WarnContext(ctx, "release_failed", slog.String("error", closeErr.Error()))
			if err == nil {
				err = NewFatalError("failed to release run resources", closeErr)
				state.Fail(err)
			}
		}
		m.tracer.RecordOperationCompletion(span, state)
		m.logOperationComplete(ctx, state)
	}()

	state.Start()
	m.logOperationStart(ctx, state.ID, stepIDs(steps))

	if logErr := m.logProgress(ctx, ProgressStart); logErr != nil {
		err = NewFatalError("failed to write progress log", logErr)
		state.Fail(err)
		m.skipRemaining(state, steps, 0, "run failed before start")
		return state, err
	}

	for i, step := range steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = NewCancellationError(step.ID(), ctxErr)
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			state.Fail(err)
			m.skipRemaining(state, steps, i, "run cancelled")
			return state, err
		}

		m.logStepStart(ctx, state.ID, step.ID(), i+1, len(steps))
		if err = m.executeStep(ctx, state, step); err != nil {
			state.Fail(err)
			m.skipRemaining(state, steps, i+1, "step "+step.ID()+" failed")
			return state, err
		}
	}

	state.Complete()
	return state, nil
}

// executeStep runs a single Step, advances the phase and writes its progress
// line. There is no retry.
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStep(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found for "+step.ID(), nil)
	}

	stepCtx, span := m.tracer.TraceStepExecution(ctx, state.ID, step.ID())
	defer span.End()

	if err := step.Validate(state); err != nil {
		opErr := NewValidationError(step.ID(), err)
		stepState.Fail(opErr)
		m.tracer.RecordStepCompletion(stepCtx, span, step.ID(), 0, opErr)
		m.logStepError(stepCtx, state.ID, step.ID(), opErr)
		return opErr
	}

	stepState.Start()
	startTime := time.Now()

	err := step.Execute(stepCtx, state)
	if err == nil {
		if phase := step.Phase(); phase != "" {
			state.Advance(phase)
		}
		err = m.logProgress(stepCtx, step.ProgressMessage())
	}

	duration := time.Since(startTime)
	m.tracer.RecordStepCompletion(stepCtx, span, step.ID(), duration, err)

	if err != nil {
		opErr := WrapError(err, step.ID())
		stepState.Fail(opErr)
		m.logStepError(stepCtx, state.ID, step.ID(), opErr)
		return opErr
	}

	stepState.Complete()
	m.logStepComplete(stepCtx, state.ID, step.ID(), duration)
	return nil
}

func (m *Manager) logProgress(ctx context.Context, message string) error {
	if m.progress == nil || message == "" {
		return nil
	}
	return m.progress.Log(ctx, message)
}

// skipRemaining marks steps[from:] as skipped
func (m *Manager) skipRemaining(state *OperationState, steps []Step, from int, reason string) {
	for _, step := range steps[from:] {
		if s := state.GetStep(step.ID()); s != nil && s.GetStatus() == StepStatusPending {
			s.Skip(reason)
		}
	}
}
