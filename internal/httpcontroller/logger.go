package httpcontroller

import "github.com/tphakala/stressnet-go/internal/logger"

// GetLogger returns the HTTP module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("http")
}
