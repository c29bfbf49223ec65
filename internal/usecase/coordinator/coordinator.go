// Package coordinator owns the lifecycle of a single browser agent run:
// admission, configuration, session setup, execution and cleanup.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/input"
	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/env"
	"github.com/JovaniPink/mcp-browser-use/internal/usecase/executor"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const (
	NoFinalResultPrefix = "No final result. Possibly incomplete. "

	defaultStopTimeout = 10 * time.Second
)

const (
	OutcomeDone       = "done"
	OutcomeIncomplete = "incomplete"
	OutcomeCancelled  = "cancelled"
	OutcomeError      = "error"
)

var _ input.RunController = (*Coordinator)(nil)

type Deps struct {
	Env      output.EnvSource
	LLMs     output.LLMFactory
	Sessions output.SessionFactory
	Actions  output.ActionRegistry
	Recorder output.HistoryRecorder
	Metrics  output.RunMetrics
	Logger   output.LoggerPort
}

type Coordinator struct {
	env      output.EnvSource
	llms     output.LLMFactory
	sessions output.SessionFactory
	actions  output.ActionRegistry
	recorder output.HistoryRecorder
	metrics  output.RunMetrics
	logger   output.LoggerPort

	slot    *semaphore.Weighted
	state   *RunState
	running atomic.Bool

	mu     sync.Mutex
	active output.BrowserSession

	stopTimeout time.Duration
	newRunID    func() string
}

func New(deps Deps) *Coordinator {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &Coordinator{
		env:         deps.Env,
		llms:        deps.LLMs,
		sessions:    deps.Sessions,
		actions:     deps.Actions,
		recorder:    deps.Recorder,
		metrics:     metrics,
		logger:      deps.Logger,
		slot:        semaphore.NewWeighted(1),
		state:       NewRunState(),
		stopTimeout: defaultStopTimeout,
		newRunID:    uuid.NewString,
	}
}

// StartRun executes one task. Only one run may be active; a concurrent call
// is rejected with entity.ErrAlreadyRunning. Every error is a *RunError.
func (c *Coordinator) StartRun(ctx context.Context, task, hints string) (result string, err error) {
	if !c.slot.TryAcquire(1) {
		c.metrics.RunRejected()
		c.logger.Warn("Run rejected, another run is active")
		return "", newRunError(entity.ErrAlreadyRunning)
	}
	c.running.Store(true)

	c.state.ClearStop()
	runID := c.newRunID()
	log := c.logger.WithField("run_id", runID)
	started := time.Now()
	outcome := OutcomeError
	c.metrics.RunStarted()
	log.Info("Run started", "task", task)

	var session output.BrowserSession
	defer func() {
		if r := recover(); r != nil {
			result, err = "", newRunError(fmt.Errorf("panic: %v", r))
			outcome = OutcomeError
		}
		if err != nil {
			log.Error("Run failed", "error", err)
		}

		c.cleanup(log, session)
		c.running.Store(false)
		c.slot.Release(1)

		c.metrics.RunFinished(outcome, time.Since(started))
		log.Info("Run finished", "outcome", outcome, "duration", time.Since(started))
	}()

	result, outcome, err = c.run(ctx, runID, task, hints, log, &session)
	if err != nil {
		return "", newRunError(err)
	}
	return result, nil
}

func (c *Coordinator) run(
	ctx context.Context,
	runID, task, hints string,
	log output.LoggerPort,
	session *output.BrowserSession,
) (string, string, error) {
	environ := c.env.Environ()
	settings := env.ResolveAgentSettings(environ, log)
	browserCfg := env.ResolveBrowserConfig(environ, log)
	creds := env.ResolveProviderCredentials(environ)

	log.Debug("Run configured",
		"provider", settings.Provider,
		"model", settings.ModelName,
		"max_steps", settings.MaxSteps,
		"headless", browserCfg.Headless,
		"remote", browserCfg.IsRemote())

	llm, err := c.llms.NewLLM(settings, creds)
	if err != nil {
		return "", OutcomeError, fmt.Errorf("create llm: %w", err)
	}

	s, err := c.sessions.NewSession(browserCfg)
	if err != nil {
		return "", OutcomeError, fmt.Errorf("create browser session: %w", err)
	}
	*session = s
	c.setActive(s)

	if err := s.Start(ctx); err != nil {
		return "", OutcomeError, fmt.Errorf("start browser: %w", err)
	}

	engine, err := executor.New(llm, s, c.actions, c.state, log, c.metrics, executor.Config{
		RunID:    runID,
		Task:     task,
		AddInfos: hints,
		Settings: settings,
	})
	if err != nil {
		return "", OutcomeError, fmt.Errorf("create engine: %w", err)
	}

	history, runErr := engine.Run(ctx)
	c.recordHistory(log, settings.HistoryGIFPath, history)
	if runErr != nil {
		if executor.IsContextError(runErr) {
			return "", OutcomeCancelled, runErr
		}
		return "", OutcomeError, runErr
	}

	if final := history.FinalResult(); final != "" {
		return final, OutcomeDone, nil
	}
	return NoFinalResultPrefix + history.String(), OutcomeIncomplete, nil
}

func (c *Coordinator) recordHistory(log output.LoggerPort, path string, history *entity.AgentHistory) {
	if path == "" || c.recorder == nil || history == nil {
		return
	}
	if err := c.recorder.WriteGIF(path, history); err != nil {
		log.Warn("Failed to write history GIF", "path", path, "error", err)
		return
	}
	log.Info("History GIF written", "path", path)
}

// cleanup sets the stop flag and releases the browser. Stop failures fall
// back to Kill; neither is allowed to surface.
func (c *Coordinator) cleanup(log output.LoggerPort, session output.BrowserSession) {
	c.state.RequestStop()
	if session == nil {
		return
	}
	c.setActive(nil)

	ctx, cancel := context.WithTimeout(context.Background(), c.stopTimeout)
	defer cancel()

	if err := guard(func() error { return session.Stop(ctx) }); err != nil {
		log.Warn("Browser stop failed, killing", "error", err)
		if err := guard(session.Kill); err != nil {
			log.Warn("Browser kill failed", "error", err)
		}
	}
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (c *Coordinator) setActive(s output.BrowserSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = s
}

// RequestStop asks the active run to finish after the current step.
func (c *Coordinator) RequestStop() {
	c.state.RequestStop()
}

// Abort sets the stop flag and kills the active browser so blocked steps fail fast.
func (c *Coordinator) Abort() {
	c.state.RequestStop()

	c.mu.Lock()
	s := c.active
	c.mu.Unlock()
	if s == nil {
		return
	}
	if err := guard(s.Kill); err != nil {
		c.logger.Warn("Abort: browser kill failed", "error", err)
	}
}

func (c *Coordinator) Running() bool {
	return c.running.Load()
}

func (c *Coordinator) StopRequested() bool {
	return c.state.IsStopRequested()
}

// LastValidState is kept after a run ends and cleared when the next one starts.
func (c *Coordinator) LastValidState() (entity.RunSnapshot, bool) {
	return c.state.LastValidState()
}
