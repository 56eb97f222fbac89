// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"context"
	"fmt"
	"strings"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/isogenerator"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/shell"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/liveisoapi"
	"github.com/sirupsen/logrus"
)

type StepState string

const (
	StepStateNotStarted StepState = "NOT_STARTED"
	StepStateRunning    StepState = "RUNNING"
	StepStateSucceeded  StepState = "SUCCEEDED"
	StepStateFailed     StepState = "FAILED"
)

// ImageBuilder runs a single external tool invocation and tracks its state.
type ImageBuilder struct {
	name    string
	command shell.Command
	runner  shell.Runner
	log     *logrus.Entry
	state   StepState
	result  shell.Result
}

func newImageBuilder(log *logrus.Entry, runner shell.Runner, name string, command shell.Command) *ImageBuilder {
	return &ImageBuilder{
		name:    name,
		command: command,
		runner:  runner,
		log:     log.WithField("component", name+"-builder"),
		state:   StepStateNotStarted,
	}
}

// NewSquashfsBuilder packs squashfsDir into imagePath with mksquashfs.
func NewSquashfsBuilder(log *logrus.Entry, runner shell.Runner, tool []string, squashfsDir string,
	imagePath string, compression liveisoapi.SquashfsCompression,
) (*ImageBuilder, error) {
	command, err := toolCommand(tool,
		squashfsDir, imagePath,
		"-noappend",
		"-comp", string(compression),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid mksquashfs command:\n%w", err)
	}

	return newImageBuilder(log, runner, "squashfs", command), nil
}

// NewInitramfsBuilder generates imagePath with dracut using the config drop-ins
// in confDir. The --add and --omit lists come from dracutConfig so that they
// agree with the drop-in. An empty kernelVersion lets dracut pick the running
// kernel.
func NewInitramfsBuilder(log *logrus.Entry, runner shell.Runner, tool []string, confDir string,
	dracutConfig liveisoapi.Dracut, kernelVersion string, imagePath string,
) (*ImageBuilder, error) {
	args := []string{
		"--force",
		"--no-hostonly",
	}

	if len(dracutConfig.AddModules) > 0 {
		args = append(args, "--add", strings.Join(dracutConfig.AddModules, " "))
	}

	if len(dracutConfig.OmitModules) > 0 {
		args = append(args, "--omit", strings.Join(dracutConfig.OmitModules, " "))
	}

	args = append(args,
		"--no-early-microcode",
		"--no-mdadmconf",
		"--no-lvmconf",
		"--confdir", confDir,
	)

	if kernelVersion != "" {
		args = append(args, "--kver", kernelVersion)
	}

	args = append(args, imagePath)

	command, err := toolCommand(tool, args...)
	if err != nil {
		return nil, fmt.Errorf("invalid dracut command:\n%w", err)
	}

	return newImageBuilder(log, runner, "initramfs", command), nil
}

// NewIsoBuilder creates the ISO with grub2-mkrescue.
func NewIsoBuilder(log *logrus.Entry, runner shell.Runner, config isogenerator.IsoGenConfig) (*ImageBuilder, error) {
	command, err := isogenerator.BuildMkrescueCommand(config)
	if err != nil {
		return nil, fmt.Errorf("invalid grub2-mkrescue command:\n%w", err)
	}

	return newImageBuilder(log, runner, "iso", command), nil
}

func toolCommand(tool []string, args ...string) (shell.Command, error) {
	if len(tool) == 0 || tool[0] == "" {
		return shell.Command{}, fmt.Errorf("tool command is empty")
	}

	commandList := append([]string(nil), tool...)
	commandList = append(commandList, args...)
	return shell.NewCommandFromList(commandList)
}

func (b *ImageBuilder) Name() string {
	return b.name
}

func (b *ImageBuilder) Command() shell.Command {
	return b.command
}

func (b *ImageBuilder) State() StepState {
	return b.state
}

// Result is the captured process outcome. Only meaningful once the state is
// SUCCEEDED or FAILED.
func (b *ImageBuilder) Result() shell.Result {
	return b.result
}

// Build issues the invocation. A process that cannot be started and one that
// exits non-zero both leave the builder FAILED with an ErrTypeExternalTool error.
func (b *ImageBuilder) Build(ctx context.Context) error {
	if b.state != StepStateNotStarted {
		return NewLiveIsoError(ErrTypeInvalidInput, fmt.Sprintf("%s: %s", b.name, ErrBuilderAlreadyRun))
	}

	b.state = StepStateRunning
	b.log.Infof("Running (%s)", b.command)

	result, err := b.runner.Run(ctx, b.command)
	b.result = result
	if err != nil {
		b.state = StepStateFailed
		b.log.Errorf("Could not start %s image tool: %v", b.name, err)
		return NewLiveIsoErrorWithCause(ErrTypeExternalTool,
			fmt.Sprintf("failed to run %s image tool", b.name), err)
	}

	if !result.Succeeded() {
		b.state = StepStateFailed
		exitErr := shell.NewExitCodeError(b.command, result, shell.DefaultErrorStderrLines)
		b.log.Errorf("The %s image tool failed: %v", b.name, exitErr)
		return NewLiveIsoErrorWithCause(ErrTypeExternalTool,
			fmt.Sprintf("failed to create %s image", b.name), exitErr)
	}

	b.state = StepStateSucceeded
	b.log.Infof("Created %s image", b.name)
	return nil
}
