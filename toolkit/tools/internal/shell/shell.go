// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package shell runs external programs and captures their output.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

const (
	// LogDisabledLevel turns off logging of a stream.
	LogDisabledLevel logrus.Level = math.MaxUint32

	// DefaultErrorStderrLines is the number of trailing stderr lines included in
	// an ExitCodeError.
	DefaultErrorStderrLines = 5

	shellPath = "/bin/sh"
)

// Command is a single external program invocation.
type Command struct {
	Name             string
	Args             []string
	WorkingDirectory string
}

func NewCommand(name string, args ...string) Command {
	return Command{
		Name: name,
		Args: args,
	}
}

// NewShellCommand runs a command line through /bin/sh.
func NewShellCommand(commandLine string) Command {
	return NewCommand(shellPath, "-c", commandLine)
}

// NewCommandFromList builds a command from an argument list where the first
// element is the program.
func NewCommandFromList(commandList []string) (Command, error) {
	if len(commandList) == 0 || commandList[0] == "" {
		return Command{}, fmt.Errorf("command list is empty")
	}

	args := append([]string(nil), commandList[1:]...)
	return NewCommand(commandList[0], args...), nil
}

func (c Command) InDirectory(dir string) Command {
	c.WorkingDirectory = dir
	return c
}

func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Name))
	for _, arg := range c.Args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\n\"'\\$") {
		return strconv.Quote(arg)
	}
	return arg
}

// Result is the outcome of a process that was started.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Runner executes commands. Implementations must block until the process
// exits and must not treat a non-zero exit code as an error.
type Runner interface {
	Run(ctx context.Context, command Command) (Result, error)
}

// ExecRunner is the Runner backed by os/exec.
type ExecRunner struct {
	log         *logrus.Entry
	stdoutLevel logrus.Level
	stderrLevel logrus.Level
}

func NewExecRunner(log *logrus.Entry) *ExecRunner {
	return &ExecRunner{
		log:         log,
		stdoutLevel: logrus.DebugLevel,
		stderrLevel: logrus.DebugLevel,
	}
}

// WithLogLevel sets the levels the child's stdout and stderr lines are logged at.
func (r *ExecRunner) WithLogLevel(stdoutLevel logrus.Level, stderrLevel logrus.Level) *ExecRunner {
	copied := *r
	copied.stdoutLevel = stdoutLevel
	copied.stderrLevel = stderrLevel
	return &copied
}

func (r *ExecRunner) Run(ctx context.Context, command Command) (Result, error) {
	return NewExecBuilder(command.Name, command.Args...).
		WorkingDirectory(command.WorkingDirectory).
		Context(ctx).
		Logger(r.log).
		LogLevel(r.stdoutLevel, r.stderrLevel).
		Run()
}

type ExecBuilder struct {
	command          string
	args             []string
	workingDirectory string
	ctx              context.Context
	log              *logrus.Entry
	stdoutLogLevel   logrus.Level
	stderrLogLevel   logrus.Level
}

func NewExecBuilder(command string, args ...string) ExecBuilder {
	return ExecBuilder{
		command:        command,
		args:           args,
		stdoutLogLevel: logrus.DebugLevel,
		stderrLogLevel: logrus.DebugLevel,
	}
}

func (b ExecBuilder) WorkingDirectory(dir string) ExecBuilder {
	b.workingDirectory = dir
	return b
}

func (b ExecBuilder) Context(ctx context.Context) ExecBuilder {
	b.ctx = ctx
	return b
}

func (b ExecBuilder) Logger(log *logrus.Entry) ExecBuilder {
	b.log = log
	return b
}

func (b ExecBuilder) LogLevel(stdoutLogLevel logrus.Level, stderrLogLevel logrus.Level) ExecBuilder {
	b.stdoutLogLevel = stdoutLogLevel
	b.stderrLogLevel = stderrLogLevel
	return b
}

func (b ExecBuilder) asCommand() Command {
	return NewCommand(b.command, b.args...).InDirectory(b.workingDirectory)
}

// Run starts the process and waits for it to exit. An error is only returned
// when the process could not be started, or when the context was cancelled.
func (b ExecBuilder) Run() (Result, error) {
	command := b.asCommand()

	var cmd *exec.Cmd
	if b.ctx != nil {
		cmd = exec.CommandContext(b.ctx, b.command, b.args...)
	} else {
		cmd = exec.Command(b.command, b.args...)
	}
	cmd.Dir = b.workingDirectory

	stdoutLog := newLineLogWriter(b.log, b.stdoutLogLevel)
	stderrLog := newLineLogWriter(b.log, b.stderrLogLevel)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = multiWriter(&stdout, stdoutLog)
	cmd.Stderr = multiWriter(&stderr, stderrLog)

	if b.log != nil {
		b.log.Debugf("Executing: %s", command)
	}

	err := cmd.Run()

	stdoutLog.Flush()
	stderrLog.Flush()

	result := Result{
		ExitCode: 0,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			result.ExitCode = -1
			return result, fmt.Errorf("failed to start (%s):\n%w", b.command, err)
		}

		result.ExitCode = exitCodeFromExitError(exitErr)
	}

	if b.ctx != nil && b.ctx.Err() != nil {
		return result, fmt.Errorf("(%s) was interrupted:\n%w", b.command, b.ctx.Err())
	}

	return result, nil
}

func exitCodeFromExitError(exitErr *exec.ExitError) int {
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if ok && status.Signaled() {
		// Match the shell's convention for processes killed by a signal.
		return 128 + int(status.Signal())
	}

	return exitErr.ExitCode()
}

// ExitCodeError reports that a process ran but exited with a non-zero code.
type ExitCodeError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func NewExitCodeError(command Command, result Result, stderrLines int) *ExitCodeError {
	return &ExitCodeError{
		Command:  command.String(),
		ExitCode: result.ExitCode,
		Stderr:   lastLines(string(result.Stderr), stderrLines),
	}
}

func (e *ExitCodeError) Error() string {
	message := fmt.Sprintf("(%s) exited with code (%d)", e.Command, e.ExitCode)
	if e.Stderr != "" {
		message += ":\n" + e.Stderr
	}
	return message
}

func lastLines(text string, count int) string {
	text = strings.TrimRight(text, "\n")
	if text == "" || count <= 0 {
		return ""
	}

	lines := strings.Split(text, "\n")
	if len(lines) > count {
		lines = lines[len(lines)-count:]
	}
	return strings.Join(lines, "\n")
}
