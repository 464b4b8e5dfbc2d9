package cmd

import (
	azlog "github.com/Azure/azure-sdk-for-go/sdk/azcore/log"
	"github.com/sirupsen/logrus"
)

// cmdLogger is the verbose logging interface for command-level output.
// Satisfied by *logrus.Logger.
type cmdLogger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

// log is the package-level logger used by commands for verbose output.
// Tests can swap this with a spy. PersistentPreRunE calls setVerbose which
// controls whether Debugf/Infof calls produce output.
var log cmdLogger = logrus.StandardLogger()

// setVerbose toggles debug logging for the CLI and wires the Azure SDK
// pipeline events into the same logger.
func setVerbose(enabled bool) {
	if !enabled {
		logrus.SetLevel(logrus.WarnLevel)
		azlog.SetListener(nil)
		return
	}

	logrus.SetLevel(logrus.DebugLevel)
	azlog.SetEvents(azlog.EventRequest, azlog.EventResponse, azlog.EventRetryPolicy)
	azlog.SetListener(func(event azlog.Event, msg string) {
		logrus.Debugf("azsdk %s: %s", event, msg)
	})
}
