package graph

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// logger is the verbose logging interface for transport-level output.
// Satisfied by *logrus.Logger.
type logger interface {
	Debugf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// loggingDoer wraps a doer, logging request/response metadata.
type loggingDoer struct {
	inner doer
	log   logger
}

// newLoggingDoer decorates inner with debug logging. A nil logger falls back
// to the standard logrus logger, so output is level-gated by --verbose.
func newLoggingDoer(inner doer, log logger) *loggingDoer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &loggingDoer{inner: inner, log: log}
}

func (d *loggingDoer) Do(req *http.Request) (*http.Response, error) {
	d.log.Debugf("%s %s", req.Method, req.URL.Path)
	start := time.Now()

	resp, err := d.inner.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		d.log.Errorf("%s %s failed: %v", req.Method, req.URL.Path, err)
		return nil, err
	}

	d.log.Debugf("%s %s -> %d (%dms)", req.Method, req.URL.Path, resp.StatusCode, elapsed.Milliseconds())
	return resp, nil
}
