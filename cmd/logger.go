package cmd

import "github.com/tphakala/stressnet-go/internal/logger"

// GetLogger returns the command-line module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("cmd")
}
