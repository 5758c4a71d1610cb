package domain

// ApprovalStatus represents the vetting state of an account.
type ApprovalStatus string

const (
	StatusPending ApprovalStatus = "PENDING"
	StatusActive  ApprovalStatus = "ACTIVE"
	StatusBlocked ApprovalStatus = "BLOCKED"
)

// validApprovalTransitions defines the allowed state machine transitions.
// ACTIVE and BLOCKED are terminal.
var validApprovalTransitions = map[ApprovalStatus][]ApprovalStatus{
	StatusPending: {StatusActive, StatusBlocked},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	for _, allowed := range validApprovalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s ApprovalStatus) IsTerminal() bool {
	return len(validApprovalTransitions[s]) == 0
}

// AccessError returns the error a request should fail with when an account in
// status s tries to act, or nil when the account may proceed.
func (s ApprovalStatus) AccessError() error {
	switch s {
	case StatusActive:
		return nil
	case StatusPending:
		return ErrAccountPending
	case StatusBlocked:
		return ErrAccountBlocked
	default:
		return ErrAccountPending
	}
}
