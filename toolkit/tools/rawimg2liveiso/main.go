// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Tool to turn a root filesystem into a bootable live ISO

package main

import (
	"context"
	"log"
	"maps"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/exekong"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/logger"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/telemetry"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/pkg/liveisolib"
	"github.com/sirupsen/logrus"
)

const telemetryShutdownTimeout = 5 * time.Second

type LiveIsoCmd struct {
	BuildDir         string           `name:"build-dir" help:"Root working directory. Holds the squashfs and iso trees. (default: /tmp/live-image)"`
	OutputDir        string           `name:"output-dir" help:"Directory to write live.iso to. Defaults to the build directory."`
	RootfsArchive    string           `name:"rootfs-archive" help:"Tarball of the root filesystem to extract into the squashfs tree."`
	ConfigFile       string           `name:"config-file" help:"Path of the live ISO config file."`
	VolumeLabel      string           `name:"volume-label" help:"Volume label the boot entry searches for."`
	ReportFile       string           `name:"report-file" help:"Path to write a YAML build report to."`
	DisableTelemetry bool             `name:"disable-telemetry" help:"Disable telemetry collection of the tool."`
	Version          kong.VersionFlag `name:"version" help:"Print the tool version and exit."`
	exekong.LogFlags
}

func main() {
	cli := &LiveIsoCmd{}

	vars := kong.Vars{
		"version": liveisolib.ToolVersion,
	}
	maps.Copy(vars, exekong.KongVars)

	_ = kong.Parse(cli,
		kong.Name("rawimg2liveiso"),
		kong.Description("Creates a bootable live ISO from a root filesystem."),
		vars,
		kong.HelpOptions{
			Compact:   true,
			FlagsLast: true,
		},
		kong.UsageOnError())

	baseLog := logger.NewBestEffort(cli.LogFlags.AsLoggerFlags())
	entry := logrus.NewEntry(baseLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, entry, cli)
	if err != nil {
		log.Fatalf("live ISO creation failed:\n%v", err)
	}
}

func run(ctx context.Context, log *logrus.Entry, cli *LiveIsoCmd) error {
	tel, err := telemetry.Init(log, cli.DisableTelemetry, liveisolib.ToolVersion)
	if err != nil {
		log.Warnf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()

		err := tel.Shutdown(shutdownCtx)
		if err != nil {
			log.Warnf("Failed to shut down telemetry: %v", err)
		}
	}()

	config, err := liveisolib.LoadConfig(cli.ConfigFile, liveisolib.ConfigOverrides{
		BuildDir:      cli.BuildDir,
		OutputDir:     cli.OutputDir,
		RootfsArchive: cli.RootfsArchive,
		VolumeLabel:   cli.VolumeLabel,
		ReportFile:    cli.ReportFile,
	})
	if err != nil {
		return err
	}

	_, err = liveisolib.CreateLiveIso(ctx, log, config)
	return err
}
