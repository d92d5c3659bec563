package worker

import (
	"github.com/spec-kit/bless-tracker/internal/service"
)

// StartSyncWorker registers the sync monitor's event handlers.
func StartSyncWorker(monitor *service.SyncMonitor) {
	if monitor == nil {
		return
	}
	monitor.RegisterHandlers()
}
