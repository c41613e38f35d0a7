package httpserver

import "github.com/ndrpnt/deka/internal/logic/batch"

// progresser is an internal interface for reading batch progress without
// depending on the orchestrator type.
type progresser interface {
	Progress() batch.Progress
}
