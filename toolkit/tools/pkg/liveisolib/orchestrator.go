// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/isogenerator"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/mountutils"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/randomization"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/shell"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/liveisoapi"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	OtelTracerName = "liveisolib"

	StepPrepareDirectories = "prepare-directories"
	StepCreateSquashfs     = "create-squashfs"
	StepConfigureGrub      = "configure-grub"
	StepCreateInitramfs    = "create-initramfs"
	StepStageBootFiles     = "stage-boot-files"
	StepCreateIso          = "create-iso"
	StepVerifyIso          = "verify-iso"

	// Below this, the build is likely to run out of space.
	recommendedFreeSpaceBytes = 4 * 1024 * 1024 * 1024
)

// Version of the tool. Set at link time.
var ToolVersion = ""

type orchestratorStep struct {
	name string
	run  func(ctx context.Context) error
}

// Orchestrator runs the live ISO build steps in order, stopping at the first
// failure. Nothing is rolled back so the build directory can be inspected.
type Orchestrator struct {
	log    *logrus.Entry
	runner shell.Runner
	config liveisoapi.Config
	paths  BuildPaths

	buildId   string
	buildTime time.Time
	now       func() time.Time

	steps []orchestratorStep
}

type OrchestratorOption func(*Orchestrator)

// WithRunner replaces the process runner used for every external tool.
func WithRunner(runner shell.Runner) OrchestratorOption {
	return func(o *Orchestrator) {
		o.runner = runner
	}
}

// WithClock replaces the time source used for the release file and report.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func NewOrchestrator(log *logrus.Entry, config liveisoapi.Config, options ...OrchestratorOption,
) (*Orchestrator, error) {
	err := config.IsValid()
	if err != nil {
		return nil, NewLiveIsoErrorWithCause(ErrTypeConfigValidation, "invalid config", err)
	}

	buildId, err := randomization.CreateBuildId()
	if err != nil {
		return nil, NewLiveIsoErrorWithCause(ErrTypeInvalidInput, "failed to create build id", err)
	}

	log = log.WithField("component", "orchestrator")

	// Tool output is verbose (dracut in particular), so stdout only shows at
	// trace level.
	runner := shell.NewExecRunner(log.WithField("component", "runner")).
		WithLogLevel(logrus.TraceLevel, logrus.DebugLevel)

	o := &Orchestrator{
		log:     log,
		runner:  runner,
		config:  config,
		paths:   NewBuildPaths(config.BuildDir, config.ResolvedOutputDir()),
		buildId: buildId,
		now:     time.Now,
	}

	for _, option := range options {
		option(o)
	}

	o.steps = []orchestratorStep{
		{StepPrepareDirectories, o.prepareDirectories},
		{StepCreateSquashfs, o.createSquashfs},
		{StepConfigureGrub, o.configureGrub},
		{StepCreateInitramfs, o.createInitramfs},
		{StepStageBootFiles, o.stageBootFiles},
		{StepCreateIso, o.createIso},
	}
	if config.Iso.Verify {
		o.steps = append(o.steps, orchestratorStep{StepVerifyIso, o.verifyIso})
	}

	return o, nil
}

func (o *Orchestrator) Paths() BuildPaths {
	return o.paths
}

func (o *Orchestrator) BuildId() string {
	return o.buildId
}

// StepNames lists the steps in execution order.
func (o *Orchestrator) StepNames() []string {
	names := make([]string, 0, len(o.steps))
	for _, step := range o.steps {
		names = append(names, step.name)
	}
	return names
}

// Run executes every step. The report is always returned, also on failure,
// and lists steps that were never reached as NOT_STARTED.
func (o *Orchestrator) Run(ctx context.Context) (*BuildReport, error) {
	ctx, span := otel.GetTracerProvider().Tracer(OtelTracerName).Start(ctx, "create_live_iso")
	span.SetAttributes(
		attribute.String("build_id", o.buildId),
		attribute.Bool("rootfs_archive", o.config.RootfsArchive != ""),
		attribute.String("squashfs_compression", string(o.config.Squashfs.Compression)),
	)
	defer span.End()

	o.buildTime = o.now()
	report := newBuildReport(o.buildId, ToolVersion, o.StepNames(), o.buildTime)

	failedStep, err := o.runSteps(ctx, report)
	report.finish(o.now(), failedStep, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, failedStep)
		o.log.Errorf("Step (%s) failed, stopping the build", failedStep)
	} else {
		report.IsoPath = o.paths.IsoPath()
		o.log.Infof("Live ISO creation successful: (%s)", report.IsoPath)
	}

	if o.config.ReportFile != "" {
		reportErr := report.WriteFile(o.config.ReportFile)
		if reportErr != nil {
			o.log.Warnf("%v", reportErr)
		}
	}

	if err != nil {
		return report, fmt.Errorf("live ISO creation failed at step (%s):\n%w", failedStep, err)
	}

	return report, nil
}

func (o *Orchestrator) runSteps(ctx context.Context, report *BuildReport) (string, error) {
	for _, step := range o.steps {
		if ctx.Err() != nil {
			report.setStepState(step.name, StepStateFailed, 0)
			return step.name, NewLiveIsoErrorWithCause(ErrTypeInvalidInput, "build was cancelled", ctx.Err())
		}

		err := o.runStep(ctx, report, step)
		if err != nil {
			return step.name, err
		}
	}

	return "", nil
}

func (o *Orchestrator) runStep(ctx context.Context, report *BuildReport, step orchestratorStep) error {
	ctx, span := otel.GetTracerProvider().Tracer(OtelTracerName).Start(ctx, strings.ReplaceAll(step.name, "-", "_"))
	defer span.End()

	o.log.Infof("Running step (%s)", step.name)
	report.setStepState(step.name, StepStateRunning, 0)

	start := time.Now()
	err := step.run(ctx)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		report.setStepState(step.name, StepStateFailed, duration)
		return err
	}

	report.setStepState(step.name, StepStateSucceeded, duration)
	return nil
}

func (o *Orchestrator) prepareDirectories(ctx context.Context) error {
	for _, dir := range o.paths.Directories() {
		err := os.MkdirAll(dir, os.ModePerm)
		if err != nil {
			return NewLiveIsoErrorWithCause(ErrTypeFilesystemOperation,
				fmt.Sprintf("failed to create directory (%s)", dir), err)
		}
	}

	mounts, err := mountutils.GetMountsUnder(o.paths.RootDir)
	if err != nil {
		o.log.Debugf("Could not check mounts under (%s): %v", o.paths.RootDir, err)
	} else if len(mounts) > 0 {
		o.log.Warnf("Build directory (%s) has active mounts, possibly left by an earlier run: %s",
			o.paths.RootDir, strings.Join(mounts, ", "))
	}

	freeSpace, err := mountutils.GetFreeSpace(o.paths.RootDir)
	if err != nil {
		o.log.Debugf("Could not check free space of (%s): %v", o.paths.RootDir, err)
	} else if freeSpace < recommendedFreeSpaceBytes {
		o.log.Warnf("Only %d MiB free in (%s), the build may run out of space",
			freeSpace/(1024*1024), o.paths.RootDir)
	}

	return nil
}

func (o *Orchestrator) createSquashfs(ctx context.Context) error {
	if o.config.RootfsArchive != "" {
		err := extractRootfs(ctx, o.log, o.runner, o.config.Tools.Tar, o.config.RootfsArchive, o.paths.SquashfsDir)
		if err != nil {
			return err
		}
	}

	logRootfsRelease(o.log, o.paths.SquashfsDir)

	err := addLiveIsoRelease(o.log, o.paths.SquashfsDir, ToolVersion, o.buildTime.UTC().Format(time.RFC3339),
		o.buildId)
	if err != nil {
		return err
	}

	imageDir := filepath.Dir(o.paths.SquashfsImagePath())
	err = os.MkdirAll(imageDir, os.ModePerm)
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeFilesystemOperation,
			fmt.Sprintf("failed to create directory (%s)", imageDir), err)
	}

	builder, err := NewSquashfsBuilder(o.log, o.runner, o.config.Tools.Mksquashfs, o.paths.SquashfsDir,
		o.paths.SquashfsImagePath(), o.config.Squashfs.Compression)
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeConfigValidation, "failed to prepare squashfs builder", err)
	}

	return builder.Build(ctx)
}

func (o *Orchestrator) configureGrub(ctx context.Context) error {
	return ConfigureGrub(o.log, o.paths.IsoDir, o.config.Grub)
}

func (o *Orchestrator) createInitramfs(ctx context.Context) error {
	err := ConfigureDracut(o.log, o.paths.SquashfsDir, o.config.Dracut)
	if err != nil {
		return err
	}

	imageDir := filepath.Dir(o.paths.InitramfsPath())
	err = os.MkdirAll(imageDir, os.ModePerm)
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeFilesystemOperation,
			fmt.Sprintf("failed to create directory (%s)", imageDir), err)
	}

	kernelVersion := resolveInitramfsKernelVersion(o.log, o.paths.SquashfsDir, o.config.Dracut.KernelVersion)

	builder, err := NewInitramfsBuilder(o.log, o.runner, o.config.Tools.Dracut, o.paths.DracutConfigDir(),
		o.config.Dracut, kernelVersion, o.paths.InitramfsPath())
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeConfigValidation, "failed to prepare initramfs builder", err)
	}

	err = builder.Build(ctx)
	if err != nil {
		return err
	}

	inspectInitramfs(o.log, o.paths.InitramfsPath())
	return nil
}

func (o *Orchestrator) stageBootFiles(ctx context.Context) error {
	return stageBootFiles(ctx, o.log, o.runner, o.config.Tools.Cp, o.paths, o.config.Dracut.KernelVersion)
}

func (o *Orchestrator) createIso(ctx context.Context) error {
	builder, err := NewIsoBuilder(o.log, o.runner, isogenerator.IsoGenConfig{
		Tool:           o.config.Tools.Grub2Mkrescue,
		StagingDirPath: o.paths.IsoDir,
		OutputFilePath: o.paths.IsoPath(),
		VolumeId:       o.config.Grub.VolumeLabel,
		SetVolumeId:    o.config.Iso.SetVolumeId,
	})
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeConfigValidation, "failed to prepare ISO builder", err)
	}

	return builder.Build(ctx)
}

func (o *Orchestrator) verifyIso(ctx context.Context) error {
	err := isogenerator.VerifyIsoContents(o.paths.IsoPath(), IsoRequiredFiles())
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeExternalTool, "produced ISO is not a bootable live ISO", err)
	}

	o.log.Infof("Verified contents of (%s)", o.paths.IsoPath())
	return nil
}
