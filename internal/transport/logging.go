// SPDX-License-Identifier: MIT
package transport

import "encoding/json"

// LoggingTransport implements Transport by writing data to the debug log.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	logger.Infof("using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs data as JSON, or raw when it does not marshal.
func (lt *LoggingTransport) Send(data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		logger.Debugf("received (%T): %+v (JSON marshal error: %v)", data, data, err)
		return nil
	}
	logger.Debugf("received (%T): %s", data, b)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	logger.Debugf("LoggingTransport closed")
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
