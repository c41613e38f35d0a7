package app

import (
	"context"

	"github.com/ndrpnt/deka/internal/infra/shutdown"
	"github.com/ndrpnt/deka/internal/logic/batch"
)

// orchestrator runs one batch of objects to completion.
type orchestrator interface {
	ApplyBatchCommand(ctx context.Context, objects []batch.TargetObject) batch.BatchReport
	Progress() batch.Progress
}

// appServer is the optional status server lifecycle.
type appServer interface {
	Start(ctx context.Context) error
	shutdown.Shutdowner
}
