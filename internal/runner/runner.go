// Package runner drives the orchestration state machine: build context,
// call the model, apply its tool calls, stream progress, and snapshot the
// result. One run handles one user request against one app.
package runner

import (
	"context"
	"encoding/json"
	"fmt"

	"appforge/internal/filestore"
	"appforge/internal/llm"
	"appforge/internal/logging"
	"appforge/internal/progress"
	"appforge/internal/prompt"
	"appforge/internal/tools"
	"appforge/internal/version"

	"github.com/google/uuid"
)

// State is the run's position in the state machine.
type State string

const (
	StateInit          State = "init"
	StateAwaitingModel State = "awaiting_model"
	StateApplyingTools State = "applying_tools"
	StateFinalizing    State = "finalizing"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Options bound the loop.
type Options struct {
	MaxTurns        int
	MaxToolsPerTurn int
}

// Deps are the collaborators a runner needs. Versions may be nil when no
// snapshot persistence is wanted (tests).
type Deps struct {
	AppID       string
	Provider    llm.Provider
	Registry    *tools.Registry
	Builder     *prompt.Builder
	Store       *filestore.Store
	Broadcaster progress.Broadcaster
	Versions    *version.Store
	Locks       *Locks
	Options     Options
}

// Result summarizes a finished run.
type Result struct {
	RunID     string
	State     State
	Turns     int
	ToolCalls int
	Summary   string
	Snapshot  *version.Snapshot
}

// Runner executes orchestration runs for one app.
type Runner struct {
	deps Deps
}

// New creates a runner. Missing options get working defaults.
func New(deps Deps) *Runner {
	if deps.Options.MaxTurns <= 0 {
		deps.Options.MaxTurns = 30
	}
	if deps.Options.MaxToolsPerTurn <= 0 {
		deps.Options.MaxToolsPerTurn = 25
	}
	if deps.Locks == nil {
		deps.Locks = NewLocks()
	}
	return &Runner{deps: deps}
}

// Run executes one orchestration run for the user's request. Only provider
// failure (after its internal fallback) fails the run; tool-level errors are
// contained as results the model reacts to. Files mutated before a failure
// stay mutated.
func (r *Runner) Run(ctx context.Context, userRequest string) (*Result, error) {
	release, err := r.deps.Locks.Acquire(r.deps.AppID)
	if err != nil {
		return nil, err
	}
	defer release()

	runID := uuid.NewString()
	rl := logging.WithRunID(logging.CategoryRunner, runID).WithField("app", r.deps.AppID)
	rl.Info("run started for app %s", r.deps.AppID)

	res := &Result{RunID: runID, State: StateInit}
	defs := llm.Definitions(r.deps.Registry.List())

	r.emit(progress.Event{Stage: progress.StageUnderstanding, Message: "Understanding your request"})

	messages := []llm.Message{
		llm.SystemMessage(r.deps.Builder.Build()),
		llm.UserMessage(userRequest),
	}

	mutated := false
	var allDeltas []progress.FileDelta
	partial := false
	summary := ""

	for turn := 1; turn <= r.deps.Options.MaxTurns; turn++ {
		res.Turns = turn
		res.State = StateAwaitingModel

		// Cancellation is honored only between turns; a turn's tool
		// calls always run to completion.
		if ctx.Err() != nil {
			return r.fail(res, rl, fmt.Sprintf("run cancelled: %v", ctx.Err()))
		}

		// Refresh the system prompt so the model sees current files.
		// Unchanged tiers stay byte-identical for prompt caching.
		messages[0] = llm.SystemMessage(r.deps.Builder.Build())

		completion, err := r.deps.Provider.Complete(ctx, messages, defs)
		if err != nil {
			return r.fail(res, rl, fmt.Sprintf("model call failed: %v", err))
		}

		if len(completion.ToolCalls) == 0 {
			summary = completion.Content
			rl.Info("model finished after %d turns", turn)
			break
		}

		res.State = StateApplyingTools
		logging.RunnerDebug("turn %d: applying %d tool calls", turn, len(completion.ToolCalls))
		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		for i, call := range completion.ToolCalls {
			var result tools.Result
			if i >= r.deps.Options.MaxToolsPerTurn {
				result = tools.Result{
					ToolCallIndex: call.Index,
					Success:       false,
					Error:         tools.ErrorInvalidArguments,
					Data:          fmt.Sprintf("turn tool budget of %d exceeded", r.deps.Options.MaxToolsPerTurn),
				}
			} else {
				result = r.deps.Registry.Dispatch(ctx, call)
			}
			res.ToolCalls++

			if result.Success && len(result.Deltas) > 0 {
				mutated = true
				allDeltas = append(allDeltas, result.Deltas...)
				for _, d := range result.Deltas {
					delta := d
					r.emit(progress.Event{
						Stage:   progress.StageForAction(d.Action),
						Message: fmt.Sprintf("%s %s", d.Action, d.Path),
						Delta:   &delta,
					})
				}
			}

			messages = append(messages, llm.ToolResultMessage(call, encodeResult(result)))
		}

		if turn == r.deps.Options.MaxTurns {
			partial = true
			rl.Warn("turn limit %d reached, forcing finalization", r.deps.Options.MaxTurns)
		}
	}

	res.State = StateFinalizing
	res.Summary = summary

	changelog := userRequest
	if partial {
		changelog += " (partial: turn limit reached before completion)"
		if summary == "" {
			res.Summary = "Reached the turn limit before the request was fully complete."
		}
	}

	if mutated && r.deps.Versions != nil {
		snap, err := r.deps.Versions.Create(r.deps.AppID, r.deps.Store.Snapshot(), changelog, allDeltas)
		if err != nil {
			// The files are already in place; a snapshot failure is
			// logged, not fatal to the run.
			rl.Error("snapshot creation failed: %v", err)
		} else {
			res.Snapshot = snap
			rl.Info("created version %s", snap.Version)
		}
	}

	res.State = StateDone
	r.emit(progress.Event{Stage: progress.StageCompleted, Message: res.Summary})
	r.recordRun(res, "done")
	rl.Info("run done: %d turns, %d tool calls", res.Turns, res.ToolCalls)
	return res, nil
}

// fail transitions the run to Failed: exactly one terminal failed event, no
// snapshot, mutations left in place.
func (r *Runner) fail(res *Result, rl *logging.RunLogger, msg string) (*Result, error) {
	res.State = StateFailed
	res.Summary = msg
	r.emit(progress.Event{Stage: progress.StageFailed, Message: msg})
	r.recordRun(res, "failed")
	rl.Error("run failed: %s", msg)
	return res, fmt.Errorf("run failed: %s", msg)
}

func (r *Runner) emit(event progress.Event) {
	if r.deps.Broadcaster != nil {
		r.deps.Broadcaster.Emit(event)
	}
}

func (r *Runner) recordRun(res *Result, status string) {
	if r.deps.Versions == nil {
		return
	}
	err := r.deps.Versions.RecordRun(version.RunRecord{
		ID:        res.RunID,
		AppID:     r.deps.AppID,
		Status:    status,
		Turns:     res.Turns,
		ToolCalls: res.ToolCalls,
		Message:   res.Summary,
	})
	if err != nil {
		logging.RunnerWarn("failed to record run %s: %v", res.RunID, err)
		return
	}
	logging.Runner("recorded run %s (%s)", res.RunID, status)
}

func encodeResult(result tools.Result) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"unencodable result: %v"}`, err)
	}
	return string(data)
}
