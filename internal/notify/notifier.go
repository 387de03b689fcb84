// Package notify delivers overdue and escalation alerts to staff. The log
// implementation is the default sink; richer channels can wrap the same
// interface.
package notify

import (
	"context"
	"log/slog"

	"reentry/internal/participant/models"
	"reentry/internal/participant/schedule"
)

// Notifier receives alerts raised by the sweep and by escalations.
type Notifier interface {
	// OverdueObligation fires when a participant has a due date in the past.
	OverdueObligation(ctx context.Context, p *models.Participant, overdue schedule.Overdue)

	// Escalated fires when repeated failed contact attempts mark a
	// participant unreachable.
	Escalated(ctx context.Context, p *models.Participant, track string)
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OverdueObligation(ctx context.Context, p *models.Participant, overdue schedule.Overdue) {
	n.logger.WarnContext(ctx, "participant has overdue obligations",
		"participantId", p.ID.String(),
		"status", string(p.Status),
		"weeklyUpdate", overdue.WeeklyUpdate,
		"monthlyCheckIn", overdue.MonthlyCheckIn,
		"monthlyReport", overdue.MonthlyReport,
	)
}

func (n *LogNotifier) Escalated(ctx context.Context, p *models.Participant, track string) {
	n.logger.WarnContext(ctx, "participant escalated as unreachable",
		"participantId", p.ID.String(),
		"track", track,
		"attempts", p.NumberOfContactAttempts,
	)
}
