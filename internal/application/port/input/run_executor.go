package input

import "context"

// RunExecutor runs one browser agent task to completion and returns the
// final textual result.
type RunExecutor interface {
	StartRun(ctx context.Context, task, hints string) (string, error)
}

type RunController interface {
	RunExecutor
	RequestStop()
	Abort()
	Running() bool
}
