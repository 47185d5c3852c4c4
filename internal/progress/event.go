// Package progress defines the ordered progress events of an orchestration
// run and the broadcasters that deliver them to a UI channel.
package progress

import "time"

// Stage identifies what a progress event reports.
type Stage string

const (
	StageUnderstanding Stage = "understanding"
	StageThinking      Stage = "thinking"
	StageFileCreated   Stage = "file_created"
	StageFileUpdated   Stage = "file_updated"
	StageFileDeleted   Stage = "file_deleted"
	StageCompleted     Stage = "completed"
	StageFailed        Stage = "failed"
)

// Terminal reports whether the stage ends a run.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Action is what happened to a file.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// FileDelta describes one file mutation.
type FileDelta struct {
	Path   string `json:"path"`
	Action Action `json:"action"`
}

// Event is one progress report. Events are append-only and never mutated
// after emission; consumers rely on their order and timestamps.
type Event struct {
	Stage     Stage      `json:"stage"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
	Delta     *FileDelta `json:"file_delta,omitempty"`
}

// StageForAction maps a file action to its progress stage.
func StageForAction(a Action) Stage {
	switch a {
	case ActionCreated:
		return StageFileCreated
	case ActionDeleted:
		return StageFileDeleted
	default:
		return StageFileUpdated
	}
}
