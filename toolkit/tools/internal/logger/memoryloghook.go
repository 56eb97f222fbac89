// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package logger

// Keeps log entries in memory so that unit tests can verify what a component
// reported.

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type MemoryLogHook struct {
	messagesLock sync.Mutex
	messages     []MemoryLogMessage
}

type MemoryLogMessage struct {
	Message string
	Level   logrus.Level
	Fields  logrus.Fields
}

func NewMemoryLogHook() *MemoryLogHook {
	return &MemoryLogHook{}
}

func (h *MemoryLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *MemoryLogHook) Fire(entry *logrus.Entry) error {
	fields := make(logrus.Fields, len(entry.Data))
	for key, value := range entry.Data {
		fields[key] = value
	}

	message := MemoryLogMessage{
		Message: entry.Message,
		Level:   entry.Level,
		Fields:  fields,
	}

	h.messagesLock.Lock()
	defer h.messagesLock.Unlock()
	h.messages = append(h.messages, message)
	return nil
}

// ConsumeMessages returns the recorded messages and clears the buffer.
func (h *MemoryLogHook) ConsumeMessages() []MemoryLogMessage {
	h.messagesLock.Lock()
	defer h.messagesLock.Unlock()

	messages := h.messages
	h.messages = nil
	return messages
}

// Contains reports whether any recorded message at the given level contains
// the substring.
func (h *MemoryLogHook) Contains(level logrus.Level, substring string) bool {
	h.messagesLock.Lock()
	defer h.messagesLock.Unlock()

	for _, message := range h.messages {
		if message.Level == level && strings.Contains(message.Message, substring) {
			return true
		}
	}
	return false
}
