package core

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses recorded in the run log.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// RunRecord is one pipeline invocation as kept in the run log.
type RunRecord struct {
	RunID          uuid.UUID
	FileName       string
	Status         string
	RowsRead       int
	StudentsLoaded int
	ErrorKind      Kind
	ErrorMessage   string
	StartedAt      time.Time
	FinishedAt     time.Time
}
