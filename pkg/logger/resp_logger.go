// Package logger provides a ResponseWriter wrapper that records the status
// code and response size for the access-log middleware.
package logger

import "net/http"

type ResponseLogger struct {
	w      http.ResponseWriter
	status int
	bytes  int
}

func New(w http.ResponseWriter) *ResponseLogger {
	return &ResponseLogger{w: w, status: http.StatusOK}
}

func (l *ResponseLogger) WriteHeader(code int) {
	l.status = code
	l.w.WriteHeader(code)
}

func (l *ResponseLogger) Write(b []byte) (int, error) {
	n, err := l.w.Write(b)
	l.bytes += n
	return n, err
}

func (l *ResponseLogger) Header() http.Header {
	return l.w.Header()
}

func (l *ResponseLogger) Status() int {
	return l.status
}

func (l *ResponseLogger) Bytes() int {
	return l.bytes
}
