package model

import "time"

type StepStatus string

const (
	StepStatusPlanned    StepStatus = "planned"
	StepStatusSuccess    StepStatus = "success"
	StepStatusFailed     StepStatus = "failed"
	StepStatusSkipped    StepStatus = "skipped"
	StepStatusInProgress StepStatus = "in_progress"
)

type StepResult struct {
	Name     string        `json:"name"`
	Status   StepStatus    `json:"status"`
	Duration time.Duration `json:"duration"`
	Message  string        `json:"message,omitempty"`
}

type ProvisionResult struct {
	Status       string       `json:"status"`
	StartedAt    time.Time    `json:"started_at"`
	EndedAt      time.Time    `json:"ended_at"`
	Hostname     string       `json:"hostname"`
	Database     string       `json:"database"`
	DocumentRoot string       `json:"document_root"`
	LogFile      string       `json:"log_file"`
	DryRun       bool         `json:"dry_run"`
	Steps        []StepResult `json:"steps"`
	Error        string       `json:"error,omitempty"`
}
