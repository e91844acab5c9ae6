package engine

import (
	"log"
	"os"

	"hrsync/util"
)

var traceEnabled = util.IsTruthy(os.Getenv("HRSYNC_TRACE"))

// tracef logs per-request detail when HRSYNC_TRACE is set.
func tracef(format string, args ...interface{}) {
	if !traceEnabled {
		return
	}
	log.Printf("engine: "+format+"\n", args...)
}
