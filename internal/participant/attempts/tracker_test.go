package attempts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reentry/internal/participant/models"
	"reentry/internal/participant/state"
	id "reentry/pkg/domain"
	dErrors "reentry/pkg/domain-errors"
)

var day0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return day0.Add(time.Duration(n) * 24 * time.Hour)
}

func newParticipant(t *testing.T, status models.Status) *models.Participant {
	t.Helper()
	p, err := models.NewParticipant(id.NewParticipantID(), "Sam", "Okafor", day0)
	require.NoError(t, err)
	p.Status = status
	return p
}

// TestEscalation_ThreeAttemptsOverThirtyDays pins the escalation rule:
// 3 attempts spaced >=30 days from the first one escalate to unreachable.
func TestEscalation_ThreeAttemptsOverThirtyDays(t *testing.T) {
	p := newParticipant(t, models.StatusPendingBridge)

	event, err := BridgeTrack.Record(p, day(0))
	require.NoError(t, err)
	assert.Equal(t, state.EventContactAttempted, event)
	p.Status = models.StatusBridgeAttempted

	event, err = BridgeTrack.Record(p, day(10))
	require.NoError(t, err)
	assert.Equal(t, state.EventContactAttempted, event)

	event, err = BridgeTrack.Record(p, day(31))
	require.NoError(t, err)
	assert.Equal(t, state.EventContactUnable, event)
	assert.Equal(t, 3, p.NumberOfContactAttempts)
}

func TestEscalation_TwoAttemptsNeverEscalate(t *testing.T) {
	p := newParticipant(t, models.StatusPendingBridge)

	_, err := BridgeTrack.Record(p, day(0))
	require.NoError(t, err)
	p.Status = models.StatusBridgeAttempted

	event, err := BridgeTrack.Record(p, day(45))
	require.NoError(t, err)
	assert.Equal(t, state.EventContactAttempted, event, "two attempts stay below the threshold however far apart")
	assert.Equal(t, 2, p.NumberOfContactAttempts)
}

// TestEscalation_WindowAnchorsOnFirstAttempt pins the open design question:
// the 30-day window counts from the first attempt of the sequence, not the
// most recent one.
func TestEscalation_WindowAnchorsOnFirstAttempt(t *testing.T) {
	p := newParticipant(t, models.StatusPendingBridge)

	_, err := BridgeTrack.Record(p, day(0))
	require.NoError(t, err)
	p.Status = models.StatusBridgeAttempted
	_, err = BridgeTrack.Record(p, day(28))
	require.NoError(t, err)

	// Third attempt at day 29: window from first attempt not yet elapsed.
	event, err := BridgeTrack.Record(p, day(29))
	require.NoError(t, err)
	assert.Equal(t, state.EventContactAttempted, event)

	// Fourth attempt at day 30: window elapsed, attempts over threshold.
	event, err = BridgeTrack.Record(p, day(30))
	require.NoError(t, err)
	assert.Equal(t, state.EventContactUnable, event)
}

func TestMentorTrack_SameThresholds(t *testing.T) {
	p := newParticipant(t, models.StatusInitialContactPending)

	event, err := MentorTrack.Record(p, day(0))
	require.NoError(t, err)
	assert.Equal(t, state.EventInitialContactAttempted, event)
	p.Status = models.StatusMentorAttempted

	_, err = MentorTrack.Record(p, day(10))
	require.NoError(t, err)

	event, err = MentorTrack.Record(p, day(31))
	require.NoError(t, err)
	assert.Equal(t, state.EventInitialContactUnable, event)
}

func TestResetAfterSuccess_RestartsSequence(t *testing.T) {
	p := newParticipant(t, models.StatusPendingBridge)

	_, err := BridgeTrack.Record(p, day(0))
	require.NoError(t, err)
	p.Status = models.StatusBridgeAttempted
	_, err = BridgeTrack.Record(p, day(5))
	require.NoError(t, err)

	p.ResetAttempts()
	assert.Zero(t, p.NumberOfContactAttempts)
	assert.Nil(t, p.FirstAttemptDate)
	assert.Nil(t, p.LastAttemptDate)

	// A fresh sequence anchors a new window: one attempt 40 days later does
	// not inherit the old anchor.
	p.Status = models.StatusPendingBridge
	event, err := BridgeTrack.Record(p, day(40))
	require.NoError(t, err)
	assert.Equal(t, state.EventContactAttempted, event)
	require.NotNil(t, p.FirstAttemptDate)
	assert.Equal(t, day(40), *p.FirstAttemptDate)
}

func TestRecord_RejectsIneligibleStatus(t *testing.T) {
	cases := []struct {
		name   string
		track  Track
		status models.Status
	}{
		{"bridge attempts after assignment", BridgeTrack, models.StatusInitialContactPending},
		{"bridge attempts on graduated", BridgeTrack, models.StatusGraduated},
		{"mentor attempts before assignment", MentorTrack, models.StatusPendingBridge},
		{"mentor attempts on active mentorship", MentorTrack, models.StatusActiveMentorship},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newParticipant(t, tc.status)
			_, err := tc.track.Record(p, day(0))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
			assert.Zero(t, p.NumberOfContactAttempts, "rejected attempts must not be recorded")
		})
	}
}
