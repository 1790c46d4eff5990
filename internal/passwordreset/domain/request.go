package domain

import "time"

// Status is the lifecycle state of a reset request. Requests only move forward:
// REQUESTED -> ACCEPTED -> PASSWORD_SENT.
type Status string

const (
	StatusRequested    Status = "REQUESTED"
	StatusAccepted     Status = "ACCEPTED"
	StatusPasswordSent Status = "PASSWORD_SENT"
)

var transitions = map[Status]Status{
	StatusRequested: StatusAccepted,
	StatusAccepted:  StatusPasswordSent,
}

// CanTransitionTo reports whether a request in status s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	n, ok := transitions[s]
	return ok && n == next
}

// Request is a support-mediated password reset.
type Request struct {
	ID         int64
	IdentityID int64
	Email      string
	Status     Status
	// TempPasswordPlain holds the generated credential between accept and send; it is cleared
	// once the password has been sent.
	TempPasswordPlain string
	TempPasswordHash  string
	ApprovedBy        string
	RequestedAt       time.Time
	ApprovedAt        *time.Time
	PasswordSentAt    *time.Time
	Remarks           string
}
