package model

import "time"

// Stage identifies which pipeline stage a journal entry belongs to.
type Stage string

const (
	StageHarvest Stage = "harvest"
	StageEnrich  Stage = "enrich"
	StageVerify  Stage = "verify"
)

// RunStatus tracks the lifecycle of a recorded stage invocation.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// StageRun is one journaled invocation of a pipeline stage.
type StageRun struct {
	ID         string     `json:"id"`
	Stage      Stage      `json:"stage"`
	Input      string     `json:"input"`
	Output     string     `json:"output"`
	Total      int        `json:"total"`
	Processed  int        `json:"processed"`
	Dropped    int        `json:"dropped"`
	Status     RunStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
