// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package logger builds the logrus loggers used by the tools.
//
// There is no package level logger. A logger is constructed once by the
// executable and handed to each component explicitly.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

const (
	ColorFlag         = "log-color"
	ColorFlagHelp     = "Color setting for log terminal output"
	ColorsPlaceholder = "(always|auto|never)"

	FileFlag     = "log-file"
	FileFlagHelp = "Path to the image's log file."

	LevelsFlag        = "log-level"
	LevelsHelp        = "The minimum log level."
	LevelsPlaceholder = "(panic|fatal|error|warn|info|debug|trace)"

	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"

	defaultLogLevel  = logrus.InfoLevel
	defaultLogFormat = "15:04:05"
)

// LogFlags is the set of logging options shared by all of the tools.
type LogFlags struct {
	LogColor *string
	LogFile  *string
	LogLevel *string
}

func Colors() []string {
	return []string{ColorAlways, ColorAuto, ColorNever}
}

func Levels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}
	return levels
}

// New creates a logger writing colorized text to stderr and, when requested,
// plain text to a log file.
func New(flags LogFlags) (*logrus.Logger, error) {
	level := defaultLogLevel
	if flags.LogLevel != nil && *flags.LogLevel != "" {
		parsedLevel, err := logrus.ParseLevel(*flags.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level (%s):\n%w", *flags.LogLevel, err)
		}
		level = parsedLevel
	}

	colorSetting := ColorAuto
	if flags.LogColor != nil && *flags.LogColor != "" {
		colorSetting = *flags.LogColor
	}

	formatter, err := newTerminalFormatter(colorSetting)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(formatter)

	if flags.LogFile != nil && *flags.LogFile != "" {
		hook, err := newFileHook(*flags.LogFile)
		if err != nil {
			return nil, err
		}
		log.AddHook(hook)
	}

	return log, nil
}

// NewBestEffort is like New, but falls back to a default stderr logger if the
// flags cannot be honored.
func NewBestEffort(flags LogFlags) *logrus.Logger {
	log, err := New(flags)
	if err != nil {
		log = NewStderrLogger()
		log.Warnf("Failed to initialize logger with the requested options:\n%v", err)
	}
	return log
}

func NewStderrLogger() *logrus.Logger {
	formatter, _ := newTerminalFormatter(ColorAuto)

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(defaultLogLevel)
	log.SetFormatter(formatter)
	return log
}

// NewMemoryLogger creates a logger that discards its output and records every
// entry in the returned hook.
func NewMemoryLogger() (*logrus.Logger, *MemoryLogHook) {
	hook := NewMemoryLogHook()

	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.TraceLevel)
	log.AddHook(hook)
	return log, hook
}

func newTerminalFormatter(colorSetting string) (*logrus.TextFormatter, error) {
	formatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: defaultLogFormat,
	}

	switch colorSetting {
	case ColorAlways:
		formatter.ForceColors = true
	case ColorNever:
		formatter.DisableColors = true
	case ColorAuto:
		// fatih/color inspects NO_COLOR, TERM and whether stdout is a terminal.
		formatter.DisableColors = color.NoColor
	default:
		return nil, fmt.Errorf("invalid log color setting (%s)", colorSetting)
	}

	return formatter, nil
}

type fileHook struct {
	file      *os.File
	formatter logrus.Formatter
}

func newFileHook(path string) (*fileHook, error) {
	err := os.MkdirAll(filepath.Dir(path), os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file directory (%s):\n%w", filepath.Dir(path), err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file (%s):\n%w", path, err)
	}

	hook := &fileHook{
		file: file,
		formatter: &logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: defaultLogFormat,
		},
	}
	return hook, nil
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	_, err = h.file.Write(line)
	return err
}
