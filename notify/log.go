package notify

import (
	"context"

	"compressd/logger"
	"compressd/models"
)

// LogNotifier writes progress to the process log. Default backend; useful
// when no transport is wired up yet.
type LogNotifier struct{}

func (n *LogNotifier) Notify(ctx context.Context, ev models.ProgressEvent) error {
	if ev.Terminal {
		logger.Infof("job %s finished: status=%s output=%s detail=%s",
			ev.JobID, ev.Status, ev.OutputRef, ev.Detail)
		return nil
	}
	logger.Debugf("job %s progress: %d%% (%s)", ev.JobID, ev.Percent, ev.Phase)
	return nil
}
