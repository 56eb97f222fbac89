// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package shell

import (
	"bytes"
	"io"

	"github.com/sirupsen/logrus"
)

// lineLogWriter logs each complete line written to it.
type lineLogWriter struct {
	log     *logrus.Entry
	level   logrus.Level
	partial []byte
}

func newLineLogWriter(log *logrus.Entry, level logrus.Level) *lineLogWriter {
	return &lineLogWriter{
		log:   log,
		level: level,
	}
}

func (w *lineLogWriter) enabled() bool {
	return w.log != nil && w.level != LogDisabledLevel && w.log.Logger.IsLevelEnabled(w.level)
}

func (w *lineLogWriter) Write(p []byte) (int, error) {
	if !w.enabled() {
		return len(p), nil
	}

	w.partial = append(w.partial, p...)
	for {
		index := bytes.IndexByte(w.partial, '\n')
		if index < 0 {
			break
		}

		w.log.Log(w.level, string(w.partial[:index]))
		w.partial = w.partial[index+1:]
	}

	return len(p), nil
}

// Flush logs any trailing text that did not end with a newline.
func (w *lineLogWriter) Flush() {
	if len(w.partial) > 0 && w.enabled() {
		w.log.Log(w.level, string(w.partial))
	}
	w.partial = nil
}

func multiWriter(capture io.Writer, log *lineLogWriter) io.Writer {
	return io.MultiWriter(capture, log)
}
