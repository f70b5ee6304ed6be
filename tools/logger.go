package tools

import (
	"fmt"
	"sync/atomic"

	"github.com/golang/glog"
)

var isEnabled int32 = 1

func DisableLogger() {
	atomic.StoreInt32(&isEnabled, 0)
}

func IsLoggerEnabled() bool {
	return atomic.LoadInt32(&isEnabled) == 1
}

// Logs an informational message unless the logger has been silenced. Errors and warnings go
// straight to glog and are never silenced.
func LogOutput(val ...interface{}) {
	if IsLoggerEnabled() {
		glog.InfoDepth(1, val...)
	}
}

func LogOutputf(format string, args ...interface{}) {
	if IsLoggerEnabled() {
		glog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}
