package assignment

import "time"

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Assignment binds a client to the trainer responsible for them. Ended
// rows are kept as history; at most one row per client may be active.
type Assignment struct {
	ID         string     `json:"id" db:"assignment_id"`
	ClientID   string     `json:"clientId" db:"client_id"`
	TrainerID  string     `json:"trainerId" db:"trainer_id"`
	Status     Status     `json:"status" db:"status"`
	AssignedBy string     `json:"assignedBy" db:"assigned_by"`
	StartedAt  time.Time  `json:"startedAt" db:"started_at"`
	EndedAt    *time.Time `json:"endedAt,omitempty" db:"ended_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

type AssignmentNew struct {
	ClientID  string `json:"clientId" validate:"required"`
	TrainerID string `json:"trainerId" validate:"required"`
}

// Notifier tells client and trainer about assignment changes.
type Notifier interface {
	SendAssignmentNotice(to, name, message string) error
}
