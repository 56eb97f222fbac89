// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"context"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/liveisoapi"
	"github.com/sirupsen/logrus"
)

// ConfigOverrides are command line values that take precedence over the
// config file. Empty values are ignored.
type ConfigOverrides struct {
	BuildDir      string
	OutputDir     string
	RootfsArchive string
	VolumeLabel   string
	ReportFile    string
}

// LoadConfig reads configFile (if any) on top of the defaults and applies the
// overrides. The result is validated.
func LoadConfig(configFile string, overrides ConfigOverrides) (liveisoapi.Config, error) {
	config := liveisoapi.DefaultConfig()

	if configFile != "" {
		var err error
		config, err = liveisoapi.LoadConfigFile(configFile)
		if err != nil {
			return liveisoapi.Config{}, NewLiveIsoErrorWithCause(ErrTypeConfigValidation, "invalid config file", err)
		}
	}

	setIfNotEmpty(&config.BuildDir, overrides.BuildDir)
	setIfNotEmpty(&config.OutputDir, overrides.OutputDir)
	setIfNotEmpty(&config.RootfsArchive, overrides.RootfsArchive)
	setIfNotEmpty(&config.Grub.VolumeLabel, overrides.VolumeLabel)
	setIfNotEmpty(&config.ReportFile, overrides.ReportFile)

	err := config.IsValid()
	if err != nil {
		return liveisoapi.Config{}, NewLiveIsoErrorWithCause(ErrTypeConfigValidation, "invalid config", err)
	}

	return config, nil
}

// CreateLiveIso builds a live ISO from config.
func CreateLiveIso(ctx context.Context, log *logrus.Entry, config liveisoapi.Config,
	options ...OrchestratorOption,
) (*BuildReport, error) {
	orchestrator, err := NewOrchestrator(log, config, options...)
	if err != nil {
		return nil, err
	}

	return orchestrator.Run(ctx)
}

func setIfNotEmpty(target *string, value string) {
	if value != "" {
		*target = value
	}
}
