package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"cdrip/internal/logging"
	"cdrip/internal/services"
)

// Outcome is how a job's run loop ended.
type Outcome int

const (
	OutcomeEOS Outcome = iota
	OutcomeError
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEOS:
		return "eos"
	case OutcomeError:
		return "error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Handlers receives non-terminal bus messages. Nil fields are ignored.
type Handlers struct {
	StateChanged func(StateChanged)
	Tag          func(TagMessage)
	Warning      func(WarningMessage)
}

// Job owns one graph and drives it to completion.
type Job struct {
	id     string
	stage  string
	graph  Graph
	logger *slog.Logger
}

// NewJob wraps graph in a job with a fresh identifier. stage labels errors
// and log lines (encoding, playback).
func NewJob(graph Graph, stage string, logger *slog.Logger) *Job {
	if logger == nil {
		logger = logging.NewNop()
	}
	id := uuid.NewString()
	return &Job{
		id:     id,
		stage:  stage,
		graph:  graph,
		logger: logger.With(logging.String(logging.FieldJobID, id)),
	}
}

// ID returns the job identifier.
func (j *Job) ID() string { return j.id }

// Graph returns the owned graph.
func (j *Job) Graph() Graph { return j.graph }

// Context annotates ctx with the job identifier and stage.
func (j *Job) Context(ctx context.Context) context.Context {
	ctx = services.WithJobID(ctx, j.id)
	return services.WithStage(ctx, j.stage)
}

// Run starts the graph and consumes bus messages until end of stream, an
// error message, or ctx cancellation. The graph is always back in StateNull
// when Run returns.
func (j *Job) Run(ctx context.Context, handlers Handlers) (outcome Outcome, err error) {
	defer func() {
		if teardownErr := j.teardown(); teardownErr != nil && err == nil {
			outcome = OutcomeError
			err = teardownErr
		}
	}()

	if err := ctx.Err(); err != nil {
		return OutcomeCancelled, err
	}

	if err := j.graph.SetState(StatePlaying); err != nil {
		return OutcomeError, services.Wrap(services.ErrRuntime, j.stage, "start", "set state playing", err)
	}
	j.logger.Debug("pipeline started", logging.String("graph", j.graph.Name()))

	bus := j.graph.Bus()
	for {
		msg, popErr := bus.Pop(ctx)
		if popErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				j.logger.Debug("pipeline cancelled", logging.String("graph", j.graph.Name()))
				return OutcomeCancelled, ctxErr
			}
			return OutcomeError, services.Wrap(services.ErrRuntime, j.stage, "bus", "pop message", popErr)
		}

		switch m := msg.(type) {
		case EOS:
			j.logger.Debug("end of stream", logging.String("graph", j.graph.Name()))
			return OutcomeEOS, nil
		case ErrorMessage:
			return OutcomeError, errorFromMessage(j.stage, m)
		case WarningMessage:
			attrs := []logging.Attr{logging.String("source", m.Source)}
			if m.Err != nil {
				attrs = append(attrs, logging.Error(m.Err))
			}
			if m.Debug != "" {
				attrs = append(attrs, logging.String("debug", m.Debug))
			}
			logging.WarnWithContext(j.logger, "pipeline warning", "pipeline_warning", attrs...)
			if handlers.Warning != nil {
				handlers.Warning(m)
			}
		case StateChanged:
			if handlers.StateChanged != nil {
				handlers.StateChanged(m)
			}
		case TagMessage:
			if handlers.Tag != nil {
				handlers.Tag(m)
			}
		}
	}
}

func (j *Job) teardown() error {
	if err := j.graph.SetState(StateNull); err != nil {
		logging.ErrorWithContext(j.logger, "pipeline teardown failed", "pipeline_teardown_failed",
			logging.String("graph", j.graph.Name()),
			logging.Error(err),
		)
		return services.Wrap(services.ErrRuntime, j.stage, "teardown", "set state null", err)
	}
	return nil
}

func errorFromMessage(stage string, m ErrorMessage) error {
	cause := m.Err
	if cause == nil {
		cause = errors.New("engine reported an error")
	}
	parts := make([]string, 0, 2)
	if m.Source != "" {
		parts = append(parts, "element "+m.Source)
	}
	if debug := strings.TrimSpace(m.Debug); debug != "" {
		parts = append(parts, "debug: "+debug)
	}
	return services.Wrap(services.ErrRuntime, stage, "pipeline", strings.Join(parts, "; "), cause)
}
