package cmd

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
)

// spyLogger captures Debugf/Infof calls for testing verbose output.
type spyLogger struct {
	debugs []string
	infos  []string
}

func (s *spyLogger) Debugf(format string, args ...interface{}) {
	s.debugs = append(s.debugs, fmt.Sprintf(format, args...))
}

func (s *spyLogger) Infof(format string, args ...interface{}) {
	s.infos = append(s.infos, fmt.Sprintf(format, args...))
}

func TestCmdLogger_DefaultIsNotNil(t *testing.T) {
	if log == nil {
		t.Fatal("package-level log should not be nil")
	}
}

func TestCmdLogger_SpyCaptures(t *testing.T) {
	spy := &spyLogger{}
	oldLog := log
	log = spy
	defer func() { log = oldLog }()

	log.Debugf("resolving %s", "operator")
	log.Infof("checking for updates to %s", "azpim")

	if len(spy.debugs) != 1 || spy.debugs[0] != "resolving operator" {
		t.Errorf("unexpected debug messages: %v", spy.debugs)
	}
	if len(spy.infos) != 1 || spy.infos[0] != "checking for updates to azpim" {
		t.Errorf("unexpected info messages: %v", spy.infos)
	}
}

func TestSetVerbose(t *testing.T) {
	oldLevel := logrus.GetLevel()
	defer func() {
		logrus.SetLevel(oldLevel)
		setVerbose(false)
	}()

	setVerbose(true)
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Errorf("verbose should enable debug logging, level = %v", logrus.GetLevel())
	}

	setVerbose(false)
	if logrus.GetLevel() != logrus.WarnLevel {
		t.Errorf("non-verbose should quiet the logger, level = %v", logrus.GetLevel())
	}
}
