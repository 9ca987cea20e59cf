package deploy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/koishi/kdeploy/domain/model"
	"github.com/koishi/kdeploy/internal/logging"
)

// runState tracks one invocation through the deployment state machine.
type runState struct {
	run    *model.Run
	logger logging.Logger
}

func (u *UseCase) startRun(ctx context.Context, op, source string) (*runState, context.Context) {
	r := &model.Run{
		ID:        uuid.NewString(),
		Operation: op,
		Source:    source,
		State:     model.RunStart,
		StartedAt: time.Now().UTC(),
	}
	logger := logging.FromContext(ctx).With("runId", r.ID)
	ctx = logging.WithLogger(ctx, logger)
	logger.Info(ctx, "Deploy:"+string(model.RunStart), "op", op, "source", source)
	return &runState{run: r, logger: logger}, ctx
}

func (s *runState) transition(ctx context.Context, state model.RunState, kv ...any) {
	s.run.State = state
	s.logger.Info(ctx, "Deploy:"+string(state), kv...)
}

// finish marks failed runs and records the run in the journal when one is configured.
// Journal failures are logged and never change the run outcome.
func (u *UseCase) finish(ctx context.Context, s *runState, err error) {
	s.run.FinishedAt = time.Now().UTC()
	if err != nil {
		s.run.Error = err.Error()
		s.transition(ctx, model.RunFailed, "err", err)
	}
	if u.Journal == nil {
		return
	}
	if jerr := u.Journal.Record(context.WithoutCancel(ctx), s.run); jerr != nil {
		s.logger.Warn(ctx, "failed to record run", "err", jerr)
	}
}

func documentKeys(docs []*model.Document) []string {
	keys := make([]string, 0, len(docs))
	for _, d := range docs {
		keys = append(keys, d.Key().String())
	}
	return keys
}
