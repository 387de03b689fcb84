package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reentry/internal/participant/models"
	id "reentry/pkg/domain"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newParticipant(t *testing.T) *models.Participant {
	t.Helper()
	p, err := models.NewParticipant(id.NewParticipantID(), "Jordan", "Reyes", base)
	require.NoError(t, err)
	return p
}

func TestOnMentorAssigned(t *testing.T) {
	p := newParticipant(t)
	OnMentorAssigned(p, base)

	require.NotNil(t, p.NextMonthlyReportDue)
	assert.Equal(t, base.Add(30*24*time.Hour), *p.NextMonthlyReportDue)
	assert.Nil(t, p.NextWeeklyUpdateDue, "weekly cadence starts at contact completion, not assignment")
	assert.Nil(t, p.NextMonthlyCheckInDue)
}

func TestOnInitialContactSuccessful(t *testing.T) {
	p := newParticipant(t)
	OnInitialContactSuccessful(p, base)

	require.NotNil(t, p.NextWeeklyUpdateDue)
	require.NotNil(t, p.NextMonthlyCheckInDue)
	assert.Equal(t, base.Add(7*24*time.Hour), *p.NextWeeklyUpdateDue)
	assert.Equal(t, base.Add(30*24*time.Hour), *p.NextMonthlyCheckInDue)
}

// TestWeeklyUpdateResetsFromNow pins due-date monotonicity: the next due
// date is always now + 7d regardless of how stale the prior one was.
func TestWeeklyUpdateResetsFromNow(t *testing.T) {
	p := newParticipant(t)
	stale := base.Add(-21 * 24 * time.Hour)
	p.NextWeeklyUpdateDue = &stale

	OnWeeklyUpdateRecorded(p, base)

	assert.Equal(t, base.Add(7*24*time.Hour), *p.NextWeeklyUpdateDue)
	require.NotNil(t, p.LastWeeklyUpdateAt)
	assert.Equal(t, base, *p.LastWeeklyUpdateAt)
}

func TestMonthlyCadencesResetFromNow(t *testing.T) {
	p := newParticipant(t)
	stale := base.Add(-90 * 24 * time.Hour)
	p.NextMonthlyCheckInDue = &stale
	p.NextMonthlyReportDue = &stale

	OnMonthlyCheckInRecorded(p, base)
	OnMonthlyReportSubmitted(p, base)

	assert.Equal(t, base.Add(30*24*time.Hour), *p.NextMonthlyCheckInDue)
	assert.Equal(t, base.Add(30*24*time.Hour), *p.NextMonthlyReportDue)
}

func TestIsOverdue(t *testing.T) {
	t.Run("nil due date is never overdue", func(t *testing.T) {
		assert.False(t, IsOverdue(nil, base))
	})

	t.Run("due exactly now is overdue", func(t *testing.T) {
		due := base
		assert.True(t, IsOverdue(&due, base))
	})

	t.Run("past due is overdue", func(t *testing.T) {
		due := base.Add(-time.Minute)
		assert.True(t, IsOverdue(&due, base))
	})

	t.Run("future due is not overdue", func(t *testing.T) {
		due := base.Add(time.Minute)
		assert.False(t, IsOverdue(&due, base))
	})
}

func TestCheck(t *testing.T) {
	p := newParticipant(t)
	past := base.Add(-time.Hour)
	future := base.Add(time.Hour)
	p.NextWeeklyUpdateDue = &past
	p.NextMonthlyCheckInDue = &future

	got := Check(p, base)
	assert.True(t, got.WeeklyUpdate)
	assert.False(t, got.MonthlyCheckIn)
	assert.False(t, got.MonthlyReport, "unset report due date is not overdue")
	assert.True(t, got.Any())
}

func TestDeriveMenteeStatus(t *testing.T) {
	p := newParticipant(t)

	assert.Equal(t, models.MenteeStatusPending, DeriveMenteeStatus(p, base))

	p.Status = models.StatusBridgeUnable
	assert.Equal(t, models.MenteeStatusUnreachable, DeriveMenteeStatus(p, base))

	p.Status = models.StatusActiveMentorship
	assert.Equal(t, models.MenteeStatusActive, DeriveMenteeStatus(p, base))

	past := base.Add(-time.Hour)
	p.NextWeeklyUpdateDue = &past
	assert.Equal(t, models.MenteeStatusNeedsFollowUp, DeriveMenteeStatus(p, base))

	p.Status = models.StatusGraduated
	assert.Equal(t, models.MenteeStatusGraduated, DeriveMenteeStatus(p, base))
}
