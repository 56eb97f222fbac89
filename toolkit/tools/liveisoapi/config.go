// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisoapi

import (
	"fmt"

	"github.com/asaskevich/govalidator"
)

const (
	DefaultBuildDir = "/tmp/live-image"
)

// Config is the top-level build configuration.
type Config struct {
	// Root working directory. Holds the squashfs and iso staging trees.
	BuildDir string `yaml:"buildDir" json:"buildDir,omitempty"`
	// Directory that receives live.iso. Defaults to BuildDir.
	OutputDir string `yaml:"outputDir" json:"outputDir,omitempty"`
	// Optional rootfs tarball extracted into the squashfs tree.
	RootfsArchive string `yaml:"rootfsArchive" json:"rootfsArchive,omitempty"`
	// Optional path of the YAML build report.
	ReportFile string `yaml:"reportFile" json:"reportFile,omitempty"`

	Squashfs Squashfs `yaml:"squashfs" json:"squashfs,omitempty"`
	Dracut   Dracut   `yaml:"dracut" json:"dracut,omitempty"`
	Grub     Grub     `yaml:"grub" json:"grub,omitempty"`
	Iso      Iso      `yaml:"iso" json:"iso,omitempty"`
	Tools    Tools    `yaml:"tools" json:"tools,omitempty"`
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() Config {
	return Config{
		BuildDir: DefaultBuildDir,
		Squashfs: DefaultSquashfs(),
		Dracut:   DefaultDracut(),
		Grub:     DefaultGrub(),
		Iso:      DefaultIso(),
		Tools:    DefaultTools(),
	}
}

// ResolvedOutputDir returns OutputDir, falling back to BuildDir.
func (c *Config) ResolvedOutputDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return c.BuildDir
}

func (c *Config) IsValid() error {
	err := validatePath(c.BuildDir, true)
	if err != nil {
		return fmt.Errorf("invalid buildDir:\n%w", err)
	}

	err = validatePath(c.OutputDir, false)
	if err != nil {
		return fmt.Errorf("invalid outputDir:\n%w", err)
	}

	err = validatePath(c.RootfsArchive, false)
	if err != nil {
		return fmt.Errorf("invalid rootfsArchive:\n%w", err)
	}

	err = validatePath(c.ReportFile, false)
	if err != nil {
		return fmt.Errorf("invalid reportFile:\n%w", err)
	}

	err = c.Squashfs.IsValid()
	if err != nil {
		return fmt.Errorf("invalid squashfs:\n%w", err)
	}

	err = c.Dracut.IsValid()
	if err != nil {
		return fmt.Errorf("invalid dracut:\n%w", err)
	}

	err = c.Grub.IsValid()
	if err != nil {
		return fmt.Errorf("invalid grub:\n%w", err)
	}

	err = c.Iso.IsValid()
	if err != nil {
		return fmt.Errorf("invalid iso:\n%w", err)
	}

	err = c.Tools.IsValid()
	if err != nil {
		return fmt.Errorf("invalid tools:\n%w", err)
	}

	return nil
}

func validatePath(value string, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("value must not be empty")
		}
		return nil
	}

	if !govalidator.IsUnixFilePath(value) {
		return fmt.Errorf("(%s) is not a valid path", value)
	}

	return nil
}
