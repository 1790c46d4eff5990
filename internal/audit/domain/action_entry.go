package domain

import "time"

// ActionType names a privileged administrative action.
type ActionType string

const (
	ActionRoleChange        ActionType = "ROLE_CHANGE"
	ActionProfileCreate     ActionType = "PROFILE_CREATE"
	ActionPasswordReset     ActionType = "PASSWORD_RESET"
	ActionUserDelete        ActionType = "USER_DELETE"
	ActionAccountActivate   ActionType = "ACCOUNT_ACTIVATE"
	ActionAccountDeactivate ActionType = "ACCOUNT_DEACTIVATE"
)

// ParseActionType returns the ActionType for s and whether it is known.
func ParseActionType(s string) (ActionType, bool) {
	switch t := ActionType(s); t {
	case ActionRoleChange, ActionProfileCreate, ActionPasswordReset, ActionUserDelete,
		ActionAccountActivate, ActionAccountDeactivate:
		return t, true
	}
	return "", false
}

// Outcome is the result of an attempted action.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailed  Outcome = "FAILED"
)

// ParseOutcome returns the Outcome for s and whether it is known.
func ParseOutcome(s string) (Outcome, bool) {
	switch o := Outcome(s); o {
	case OutcomeSuccess, OutcomeFailed:
		return o, true
	}
	return "", false
}

// ActionEntry is one append-only record of an attempted privileged action.
// BeforeState and AfterState are JSON snapshots, empty when not applicable.
type ActionEntry struct {
	ID           string
	ActorEmail   string
	ActorRole    string
	TargetUserID *int64
	TargetEmail  string
	ActionType   ActionType
	Outcome      Outcome
	Reason       string
	BeforeState  string
	AfterState   string
	PerformedAt  time.Time
}
