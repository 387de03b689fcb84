// Package schedule computes the recurring follow-up deadlines for active
// mentorships. Cadences always reset from the time of the recording write,
// not from the previous due date, so missed updates never compound the delay.
package schedule

import (
	"time"

	"reentry/internal/participant/models"
)

// Fixed cadences. Due dates are always now + cadence, which keeps them
// strictly in the future relative to the write that set them.
const (
	WeeklyUpdateCadence   = 7 * 24 * time.Hour
	MonthlyCheckInCadence = 30 * 24 * time.Hour
	MonthlyReportCadence  = 30 * 24 * time.Hour
)

// OnMentorAssigned starts the monthly report cadence. The report clock runs
// from assignment, not from contact completion.
func OnMentorAssigned(p *models.Participant, now time.Time) {
	due := now.Add(MonthlyReportCadence)
	p.NextMonthlyReportDue = &due
}

// OnInitialContactSuccessful starts the weekly update and monthly check-in
// cadences.
func OnInitialContactSuccessful(p *models.Participant, now time.Time) {
	weekly := now.Add(WeeklyUpdateCadence)
	checkIn := now.Add(MonthlyCheckInCadence)
	p.NextWeeklyUpdateDue = &weekly
	p.NextMonthlyCheckInDue = &checkIn
}

// OnWeeklyUpdateRecorded resets the weekly cadence from now.
func OnWeeklyUpdateRecorded(p *models.Participant, now time.Time) {
	due := now.Add(WeeklyUpdateCadence)
	p.NextWeeklyUpdateDue = &due
	p.LastWeeklyUpdateAt = &now
}

// OnMonthlyCheckInRecorded resets the check-in cadence from now.
func OnMonthlyCheckInRecorded(p *models.Participant, now time.Time) {
	due := now.Add(MonthlyCheckInCadence)
	p.NextMonthlyCheckInDue = &due
	p.LastMonthlyCheckInAt = &now
}

// OnMonthlyReportSubmitted resets the report cadence from now.
func OnMonthlyReportSubmitted(p *models.Participant, now time.Time) {
	due := now.Add(MonthlyReportCadence)
	p.NextMonthlyReportDue = &due
	p.LastMonthlyReportAt = &now
}

// IsOverdue is the single overdue predicate. A nil due date means the
// participant never entered that stage, which is not overdue. Overdue is
// derived at read time and never persisted.
func IsOverdue(due *time.Time, now time.Time) bool {
	if due == nil {
		return false
	}
	return !due.After(now)
}

// Overdue summarizes a participant's overdue cadences for dashboards.
type Overdue struct {
	WeeklyUpdate   bool `json:"weeklyUpdate"`
	MonthlyCheckIn bool `json:"monthlyCheckIn"`
	MonthlyReport  bool `json:"monthlyReport"`
}

// Any reports whether at least one cadence is overdue.
func (o Overdue) Any() bool {
	return o.WeeklyUpdate || o.MonthlyCheckIn || o.MonthlyReport
}

// Check computes the overdue summary for a participant.
func Check(p *models.Participant, now time.Time) Overdue {
	return Overdue{
		WeeklyUpdate:   IsOverdue(p.NextWeeklyUpdateDue, now),
		MonthlyCheckIn: IsOverdue(p.NextMonthlyCheckInDue, now),
		MonthlyReport:  IsOverdue(p.NextMonthlyReportDue, now),
	}
}

// DeriveMenteeStatus recomputes the display status from the authoritative
// status plus overdue state. The result carries no authority; dashboards
// read it, nothing decides on it.
func DeriveMenteeStatus(p *models.Participant, now time.Time) models.MenteeStatus {
	switch p.Status {
	case models.StatusGraduated:
		return models.MenteeStatusGraduated
	case models.StatusBridgeUnable, models.StatusMentorUnable:
		return models.MenteeStatusUnreachable
	case models.StatusActiveMentorship:
		if Check(p, now).Any() {
			return models.MenteeStatusNeedsFollowUp
		}
		return models.MenteeStatusActive
	default:
		return models.MenteeStatusPending
	}
}
