package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/prompts"
)

// RunSignals is the coordinator side of a run: the engine polls the stop
// flag between steps and reports each known-good state.
type RunSignals interface {
	IsStopRequested() bool
	SetLastValidState(snapshot entity.RunSnapshot)
}

type Config struct {
	RunID    string
	Task     string
	AddInfos string
	Settings entity.AgentSettings
}

type Engine struct {
	llm      output.LLMPort
	session  output.BrowserSession
	actions  output.ActionRegistry
	signals  RunSignals
	logger   output.LoggerPort
	metrics  output.RunMetrics
	cfg      Config
	messages *messageManager
	now      func() time.Time
}

func New(
	llm output.LLMPort,
	session output.BrowserSession,
	actions output.ActionRegistry,
	signals RunSignals,
	logger output.LoggerPort,
	metrics output.RunMetrics,
	cfg Config,
) (*Engine, error) {
	if cfg.Settings.MaxSteps <= 0 {
		return nil, fmt.Errorf("max steps must be positive, got %d", cfg.Settings.MaxSteps)
	}
	if cfg.Settings.MaxActionsPerStep <= 0 {
		return nil, fmt.Errorf("max actions per step must be positive, got %d", cfg.Settings.MaxActionsPerStep)
	}
	if metrics == nil {
		metrics = output.NopMetrics{}
	}

	systemPrompt, err := prompts.GenerateSystemPrompt(cfg.Settings.MaxActionsPerStep, actions.Describe(), time.Now())
	if err != nil {
		return nil, err
	}

	return &Engine{
		llm:      llm,
		session:  session,
		actions:  actions,
		signals:  signals,
		logger:   logger,
		metrics:  metrics,
		cfg:      cfg,
		messages: newMessageManager(systemPrompt, cfg.Settings.MaxHistoryMessages, llm, cfg.Settings.Temperature, logger),
		now:      time.Now,
	}, nil
}

// Run drives the step loop until done, the stop flag, max steps or too many
// consecutive failures. It returns an error only when ctx ends the run; the
// history is always returned.
func (e *Engine) Run(ctx context.Context) (*entity.AgentHistory, error) {
	history := &entity.AgentHistory{}
	s := e.cfg.Settings
	info := &entity.StepInfo{
		MaxSteps: s.MaxSteps,
		Task:     e.cfg.Task,
		AddInfos: e.cfg.AddInfos,
	}

	var lastResults []entity.ActionResult
	failures := 0

	for step := 1; step <= s.MaxSteps; step++ {
		if e.signals.IsStopRequested() {
			e.logger.Info("Stop requested, ending run", "step", step)
			break
		}
		if err := ctx.Err(); err != nil {
			return history, err
		}

		info.StepNumber = step
		started := e.now()
		item, err := e.step(ctx, info, lastResults)
		item.Step = step
		item.Duration = e.now().Sub(started)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				history.Add(item)
				return history, ctxErr
			}
			failures++
			e.logger.Warn("Step failed", "step", step, "failures", failures, "error", err)
			lastResults = []entity.ActionResult{entity.ErrorResult(err)}
			item.Results = lastResults
			history.Add(item)

			if failures >= s.MaxFailures {
				e.logger.Error("Too many consecutive failures, ending run", "failures", failures)
				break
			}
			if err := sleep(ctx, s.RetryDelay); err != nil {
				return history, err
			}
			continue
		}

		failures = 0
		lastResults = item.Results
		history.Add(item)
		e.metrics.StepCompleted(len(item.Results))

		if history.IsDone() {
			e.logger.Info("Task completed", "step", step)
			break
		}
	}

	return history, nil
}

func (e *Engine) step(ctx context.Context, info *entity.StepInfo, lastResults []entity.ActionResult) (entity.HistoryItem, error) {
	s := e.cfg.Settings
	var item entity.HistoryItem

	state, err := e.session.State(ctx, s.UseVision)
	if err != nil {
		return item, fmt.Errorf("get browser state: %w", err)
	}
	item.URL = state.URL
	item.Screenshot = state.Screenshot

	e.signals.SetLastValidState(entity.RunSnapshot{
		RunID:        e.cfg.RunID,
		Step:         info.StepNumber,
		URL:          state.URL,
		Title:        state.Title,
		Memory:       info.Memory,
		TaskProgress: info.TaskProgress,
		CapturedAt:   e.now(),
	})

	e.messages.Compact(ctx)
	stateMsg := prompts.RenderStateMessage(state, lastResults, info, s.IncludeAttributes, s.MaxErrorLength)

	resp, err := e.llm.Chat(ctx, output.ChatRequest{
		Messages:    e.messages.Messages(stateMsg),
		Temperature: s.Temperature,
		JSONMode:    !s.ToolCallInContent,
	})
	if err != nil {
		return item, fmt.Errorf("llm request failed: %w", err)
	}

	reply := resp.Message.Text()
	out, err := ParseAgentOutput(reply)
	if err != nil {
		return item, err
	}
	e.messages.Commit(stateMsg, reply)
	item.ModelOutput = out

	if c := strings.TrimSpace(out.CurrentState.ImportantContents); c != "" {
		info.Memory += c + "\n"
	}
	if c := strings.TrimSpace(out.CurrentState.CompletedContents); c != "" {
		info.TaskProgress = c
	}

	e.logger.Debug("Model output",
		"step", info.StepNumber,
		"evaluation", out.CurrentState.PrevActionEvaluation,
		"thought", out.CurrentState.Thought,
		"actions", len(out.Actions))

	actions := out.Actions
	if len(actions) > s.MaxActionsPerStep {
		e.logger.Warn("Truncating actions", "requested", len(actions), "max", s.MaxActionsPerStep)
		actions = actions[:s.MaxActionsPerStep]
	}
	item.Results = e.executeActions(ctx, actions, state.URL)
	return item, nil
}

// executeActions runs actions in order. The sequence stops after done, after
// an error, or when the page URL changed since the state was taken.
func (e *Engine) executeActions(ctx context.Context, actions []entity.ActionModel, stateURL string) []entity.ActionResult {
	results := make([]entity.ActionResult, 0, len(actions))

	for i, a := range actions {
		if i > 0 {
			if e.signals.IsStopRequested() || ctx.Err() != nil {
				break
			}
			if cur, err := e.session.CurrentURL(ctx); err == nil && cur != stateURL {
				e.logger.Info("Page changed, interrupting action sequence", "executed", i, "total", len(actions))
				break
			}
		}

		e.logger.Info("Executing action", "name", a.Name, "params", string(a.Params))
		res := e.actions.Execute(ctx, a.Name, a.Params, e.session)
		if res.Error != "" {
			e.metrics.ActionFailed(a.Name)
			e.logger.Warn("Action failed", "name", a.Name, "error", res.Error)
		}
		results = append(results, res)

		if res.IsDone || res.Error != "" {
			break
		}
	}
	return results
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsContextError reports whether err ended a run by cancellation or deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
