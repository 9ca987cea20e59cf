package deploy

import (
	"context"
	"fmt"

	"github.com/koishi/kdeploy/domain/model"
)

type HistoryInput struct {
	Limit int
}

type HistoryOutput struct {
	Runs []*model.Run
}

// History lists recorded runs, newest first.
func (u *UseCase) History(ctx context.Context, in *HistoryInput) (*HistoryOutput, error) {
	if u.Journal == nil {
		return nil, fmt.Errorf("run journal is not configured")
	}
	limit := 20
	if in != nil && in.Limit > 0 {
		limit = in.Limit
	}
	runs, err := u.Journal.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return &HistoryOutput{Runs: runs}, nil
}
