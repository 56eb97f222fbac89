// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package testutils

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/shell"
	"github.com/stretchr/testify/require"
)

const (
	TestKernelRelease = "6.11.6-200.fc40.x86_64"

	testOsRelease = `NAME="Fedora Linux"
ID=fedora
VERSION_ID=40
PRETTY_NAME="Fedora Linux 40 (Test Edition)"
`
)

// RecordingRunner is a shell.Runner that records commands instead of running
// them. Results are looked up by command name (the first element).
type RecordingRunner struct {
	lock     sync.Mutex
	commands []shell.Command

	// Per command name. Commands without an entry succeed with no output.
	Results     map[string]shell.Result
	StartErrors map[string]error
	// Called for every command that "succeeds", e.g. to create the files the
	// real tool would have written.
	OnSuccess func(command shell.Command)
}

func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{
		Results:     make(map[string]shell.Result),
		StartErrors: make(map[string]error),
	}
}

func (r *RecordingRunner) Run(ctx context.Context, command shell.Command) (shell.Result, error) {
	r.lock.Lock()
	r.commands = append(r.commands, command)
	r.lock.Unlock()

	if err := ctx.Err(); err != nil {
		return shell.Result{ExitCode: -1}, err
	}

	if err, ok := r.StartErrors[command.Name]; ok {
		return shell.Result{ExitCode: -1}, err
	}

	result := r.Results[command.Name]
	if result.Succeeded() && r.OnSuccess != nil {
		r.OnSuccess(command)
	}

	return result, nil
}

// Commands returns every command received so far.
func (r *RecordingRunner) Commands() []shell.Command {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]shell.Command(nil), r.commands...)
}

// CommandNames returns the program name of every command received so far.
func (r *RecordingRunner) CommandNames() []string {
	names := []string(nil)
	for _, command := range r.Commands() {
		names = append(names, command.Name)
	}
	return names
}

// CreateTestRootfs populates rootDir with the few files a live ISO build looks
// at: an os-release file and a kernel with its modules directory.
func CreateTestRootfs(t *testing.T, rootDir string, kernelRelease string) {
	files := map[string]string{
		"etc/os-release": testOsRelease,
		filepath.Join("usr/lib/modules", kernelRelease, "vmlinuz"):     "kernel " + kernelRelease,
		filepath.Join("usr/lib/modules", kernelRelease, "modules.dep"): "",
	}

	for name, content := range files {
		path := filepath.Join(rootDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// CheckSkipForTools skips the test unless every program is on PATH.
func CheckSkipForTools(t *testing.T, programs ...string) {
	for _, program := range programs {
		_, err := exec.LookPath(program)
		if err != nil {
			t.Skipf("The '%s' command is not available", program)
		}
	}
}

// CheckSkipForRoot skips the test unless it runs as root.
func CheckSkipForRoot(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("Test must be run as root")
	}
}
