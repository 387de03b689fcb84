// Package attempts translates sequences of contact attempts into pipeline
// events. The bridge team and mentors run structurally identical attempt
// tracks; one Track definition parameterizes both so the thresholds cannot
// drift between the two code paths.
package attempts

import (
	"fmt"
	"time"

	"reentry/internal/participant/models"
	"reentry/internal/participant/state"
	dErrors "reentry/pkg/domain-errors"
)

// Escalation thresholds, identical for both tracks: a participant becomes
// unreachable after at least 3 attempts spanning at least 30 days counted
// from the first attempt of the current sequence.
const (
	EscalationAttempts = 3
	EscalationWindow   = 30 * 24 * time.Hour
)

// Track binds the shared escalation rule to one stage of the pipeline: which
// statuses may receive attempts and which events an attempt produces.
type Track struct {
	Name          string
	eligible      map[models.Status]struct{}
	attemptEvent  state.Event
	escalateEvent state.Event
}

// BridgeTrack covers bridge-team attempts before mentor assignment.
var BridgeTrack = Track{
	Name: "bridge",
	eligible: map[models.Status]struct{}{
		models.StatusPendingBridge:   {},
		models.StatusBridgeAttempted: {},
	},
	attemptEvent:  state.EventContactAttempted,
	escalateEvent: state.EventContactUnable,
}

// MentorTrack covers mentor attempts after assignment.
var MentorTrack = Track{
	Name: "mentor",
	eligible: map[models.Status]struct{}{
		models.StatusInitialContactPending: {},
		models.StatusMentorAttempted:       {},
	},
	attemptEvent:  state.EventInitialContactAttempted,
	escalateEvent: state.EventInitialContactUnable,
}

// Eligible reports whether attempts may be recorded from status.
func (t Track) Eligible(status models.Status) bool {
	_, ok := t.eligible[status]
	return ok
}

// Record applies one attempt to the participant and returns the event the
// state machine should receive: the plain attempt event below the threshold,
// the escalation event at or beyond it. Attempts against a status outside
// the track are invalid transitions, not silently recorded.
func (t Track) Record(p *models.Participant, now time.Time) (state.Event, error) {
	if !t.Eligible(p.Status) {
		return "", dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("%s contact attempt is not legal from status %q", t.Name, p.Status))
	}

	p.RecordAttempt(now)

	if t.shouldEscalate(p, now) {
		return t.escalateEvent, nil
	}
	return t.attemptEvent, nil
}

// shouldEscalate checks both thresholds. The window anchors on the first
// attempt of the current sequence; a successful contact resets the anchor.
func (t Track) shouldEscalate(p *models.Participant, now time.Time) bool {
	if p.NumberOfContactAttempts < EscalationAttempts {
		return false
	}
	if p.FirstAttemptDate == nil {
		return false
	}
	return now.Sub(*p.FirstAttemptDate) >= EscalationWindow
}
