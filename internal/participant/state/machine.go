// Package state holds the authoritative transition table for participant
// statuses. Every status change in the system flows through Next; nothing
// else is allowed to assign a Status.
package state

import (
	"fmt"

	"reentry/internal/participant/models"
	dErrors "reentry/pkg/domain-errors"
)

// Event names a status-changing action. Side effects (resetting cadences,
// clearing attempt counters) are attached to the transition in the service
// layer, not to the states themselves.
type Event string

const (
	// Bridge track.
	EventContactSuccessful Event = "contact_successful"
	EventBridgeContacted   Event = "bridge_contacted"
	EventContactAttempted  Event = "contact_attempted"
	EventContactUnable     Event = "contact_unable"

	// Assignment.
	EventMentorAssigned Event = "mentor_assigned"

	// Mentor track.
	EventInitialContactSuccessful Event = "initial_contact_successful"
	EventInitialContactAttempted  Event = "initial_contact_attempted"
	EventInitialContactUnable     Event = "initial_contact_unable"

	// Graduation.
	EventGraduationApproved Event = "graduation_approved"
)

type transitionKey struct {
	from  models.Status
	event Event
}

// transitions is the whole legal surface. A (status, event) pair missing here
// is an invalid transition, never silently coerced.
var transitions = map[transitionKey]models.Status{
	// Bridge contact outcomes. A successful contact from any bridge-stage
	// status moves the participant to the mentor pool, including
	// re-engagement from bridge_unable.
	{models.StatusPendingBridge, EventContactSuccessful}:   models.StatusPendingMentor,
	{models.StatusBridgeAttempted, EventContactSuccessful}: models.StatusPendingMentor,
	{models.StatusBridgeContacted, EventContactSuccessful}: models.StatusPendingMentor,
	{models.StatusBridgeUnable, EventContactSuccessful}:    models.StatusPendingMentor,

	{models.StatusPendingBridge, EventBridgeContacted}:   models.StatusBridgeContacted,
	{models.StatusBridgeAttempted, EventBridgeContacted}: models.StatusBridgeContacted,

	{models.StatusPendingBridge, EventContactAttempted}:   models.StatusBridgeAttempted,
	{models.StatusBridgeAttempted, EventContactAttempted}: models.StatusBridgeAttempted,

	{models.StatusPendingBridge, EventContactUnable}:   models.StatusBridgeUnable,
	{models.StatusBridgeAttempted, EventContactUnable}: models.StatusBridgeUnable,
	{models.StatusBridgeContacted, EventContactUnable}: models.StatusBridgeUnable,

	// Mentor assignment.
	{models.StatusPendingMentor, EventMentorAssigned}: models.StatusInitialContactPending,

	// Initial contact outcomes, including re-engagement from mentor_unable.
	{models.StatusInitialContactPending, EventInitialContactSuccessful}: models.StatusActiveMentorship,
	{models.StatusMentorAttempted, EventInitialContactSuccessful}:       models.StatusActiveMentorship,
	{models.StatusMentorUnable, EventInitialContactSuccessful}:          models.StatusActiveMentorship,

	{models.StatusInitialContactPending, EventInitialContactAttempted}: models.StatusMentorAttempted,
	{models.StatusMentorAttempted, EventInitialContactAttempted}:       models.StatusMentorAttempted,

	{models.StatusInitialContactPending, EventInitialContactUnable}: models.StatusMentorUnable,
	{models.StatusMentorAttempted, EventInitialContactUnable}:       models.StatusMentorUnable,

	// Graduation is terminal.
	{models.StatusActiveMentorship, EventGraduationApproved}: models.StatusGraduated,
}

// Next returns the status that event produces from current, or an
// invalid-transition error naming both so callers can log full context.
// Callers must resolve current from the store immediately before applying.
func Next(current models.Status, event Event) (models.Status, error) {
	if !current.Valid() {
		return "", dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("unknown current status %q", current))
	}
	if current.Terminal() {
		return "", dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("status %q is terminal", current))
	}
	next, ok := transitions[transitionKey{current, event}]
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("event %q is not legal from status %q", event, current))
	}
	return next, nil
}

// Legal reports whether event applies from current.
func Legal(current models.Status, event Event) bool {
	_, ok := transitions[transitionKey{current, event}]
	return ok
}

// EventForTarget finds the event that moves current to target, for callers
// that think in terms of a destination status (the update-status form).
// Returns false when no single event produces that move.
func EventForTarget(current, target models.Status) (Event, bool) {
	for key, next := range transitions {
		if key.from == current && next == target {
			return key.event, true
		}
	}
	return "", false
}

// EventsFrom lists the events legal from current, for diagnostics.
func EventsFrom(current models.Status) []Event {
	var events []Event
	for key := range transitions {
		if key.from == current {
			events = append(events, key.event)
		}
	}
	return events
}
