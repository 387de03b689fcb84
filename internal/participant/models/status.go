package models

// Status is the participant's position in the support pipeline. No value
// outside this set may ever be persisted.
type Status string

const (
	// StatusPendingBridge is the entry status set at intake: waiting for the
	// bridge team to make first contact.
	StatusPendingBridge Status = "pending_bridge"

	// StatusBridgeAttempted records that the bridge team has tried to reach
	// the participant without success, below the escalation threshold.
	StatusBridgeAttempted Status = "bridge_attempted"

	// StatusBridgeContacted records that the bridge team reached the
	// participant but a leader has not yet cleared them for mentor matching.
	StatusBridgeContacted Status = "bridge_contacted"

	// StatusBridgeUnable records escalated failure: the attempt threshold was
	// crossed or the bridge team marked the participant unreachable.
	StatusBridgeUnable Status = "bridge_unable"

	// StatusPendingMentor means bridge contact succeeded and the participant
	// is waiting for a mentorship leader to assign a mentor.
	StatusPendingMentor Status = "pending_mentor"

	// StatusInitialContactPending means a mentor is assigned and owes the
	// participant a first contact.
	StatusInitialContactPending Status = "initial_contact_pending"

	// StatusMentorAttempted mirrors StatusBridgeAttempted for the mentor
	// track.
	StatusMentorAttempted Status = "mentor_attempted"

	// StatusMentorUnable mirrors StatusBridgeUnable for the mentor track.
	StatusMentorUnable Status = "mentor_unable"

	// StatusActiveMentorship means initial contact succeeded and recurring
	// cadences are running.
	StatusActiveMentorship Status = "active_mentorship"

	// StatusGraduated is terminal. The record is retained.
	StatusGraduated Status = "graduated"
)

var allStatuses = map[Status]struct{}{
	StatusPendingBridge:         {},
	StatusBridgeAttempted:       {},
	StatusBridgeContacted:       {},
	StatusBridgeUnable:          {},
	StatusPendingMentor:         {},
	StatusInitialContactPending: {},
	StatusMentorAttempted:       {},
	StatusMentorUnable:          {},
	StatusActiveMentorship:      {},
	StatusGraduated:             {},
}

// Valid reports whether s is one of the fixed status values.
func (s Status) Valid() bool {
	_, ok := allStatuses[s]
	return ok
}

// Terminal reports whether the pipeline ends at s.
func (s Status) Terminal() bool {
	return s == StatusGraduated
}

// AllStatuses returns every legal status value.
func AllStatuses() []Status {
	return []Status{
		StatusPendingBridge,
		StatusBridgeAttempted,
		StatusBridgeContacted,
		StatusBridgeUnable,
		StatusPendingMentor,
		StatusInitialContactPending,
		StatusMentorAttempted,
		StatusMentorUnable,
		StatusActiveMentorship,
		StatusGraduated,
	}
}

// MenteeStatus is the derived display status shown on dashboards. It is
// recomputed from Status plus overdue state on every write; it carries no
// authority of its own.
type MenteeStatus string

const (
	MenteeStatusPending       MenteeStatus = "pending"
	MenteeStatusUnreachable   MenteeStatus = "unreachable"
	MenteeStatusActive        MenteeStatus = "active"
	MenteeStatusNeedsFollowUp MenteeStatus = "needs_follow_up"
	MenteeStatusGraduated     MenteeStatus = "graduated"
)
