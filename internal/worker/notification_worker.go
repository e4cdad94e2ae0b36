package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-escalation/internal/notify"
	"github.com/spec-kit/ticket-escalation/internal/service"
)

// StartNotificationWorker registers notification handlers and returns a stop
// function that flushes and closes the sink.
func StartNotificationWorker(notificationService *service.NotificationService, sink notify.Sink, logger *zap.Logger) func() {
	if notificationService == nil {
		return func() {}
	}
	notificationService.RegisterHandlers()
	return func() {
		if sink == nil {
			return
		}
		if err := sink.Close(); err != nil {
			logger.Warn("close notification sink", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}
}
