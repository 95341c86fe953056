package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobscout/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes the run summary to the given logger as a structured message.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs the summary via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifySummary logs the query and every counter. It never fails.
func (n *LogNotifier) NotifySummary(_ context.Context, q model.Query, s model.Summary) error {
	n.logger.Info("run summary",
		"what", q.What,
		"where", q.Where,
		"remote_only", q.RemoteOnly,
		"fetched", s.Fetched,
		"processed", s.Processed,
		"saved", s.Saved,
		"blocked", s.Blocked,
		"failed", s.Failed,
		"filtered", s.Filtered,
		"skipped", s.Skipped,
	)
	return nil
}
