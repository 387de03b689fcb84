package audit

import "time"

// Action names the lifecycle operation an event records.
type Action string

const (
	ActionParticipantCreated      Action = "participant_created"
	ActionStatusChanged           Action = "status_changed"
	ActionContactRecorded         Action = "contact_recorded"
	ActionInitialContactRecorded  Action = "initial_contact_recorded"
	ActionWeeklyUpdateRecorded    Action = "weekly_update_recorded"
	ActionMonthlyCheckInRecorded  Action = "monthly_check_in_recorded"
	ActionMonthlyReportSubmitted  Action = "monthly_report_submitted"
	ActionBridgeAssigned          Action = "bridge_assigned"
	ActionMentorAssigned          Action = "mentor_assigned"
	ActionGraduationStepCompleted Action = "graduation_step_completed"
	ActionParticipantsMerged      Action = "participants_merged"
	ActionParticipantDeleted      Action = "participant_deleted"
	ActionNoteAdded               Action = "note_added"
	ActionGuidanceTaskOpened      Action = "guidance_task_opened"
	ActionGuidanceTaskCompleted   Action = "guidance_task_completed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	ParticipantID string    `json:"participantId"`
	ActorID       string    `json:"actorId,omitempty"`
	ActorName     string    `json:"actorName,omitempty"`
	Action        Action    `json:"action"`
	Detail        string    `json:"detail,omitempty"`
	RequestID     string    `json:"requestId,omitempty"`
}
