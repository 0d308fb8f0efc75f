package utils

import "log"

// InitLogging initializes logging. Level-based filtering is left to the
// deployment; the hub only sets flags.
func InitLogging(level string) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
