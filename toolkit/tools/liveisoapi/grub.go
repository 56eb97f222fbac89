// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisoapi

import (
	"fmt"
	"strings"

	"github.com/asaskevich/govalidator"
)

const (
	DefaultVolumeLabel = "Fedora-LiveOS"
	DefaultMenuTitle   = "Start Fedora LiveOS"
	DefaultGrubTimeout = 10

	// ISO9660 volume identifiers are limited to 32 characters.
	maxVolumeLabelLength = 32
	maxGrubTimeout       = 3600
)

// Grub controls the grub.cfg placed in the ISO.
type Grub struct {
	// Volume label searched by grub and passed as root=live:CDLABEL=.
	VolumeLabel string `yaml:"volumeLabel" json:"volumeLabel,omitempty"`
	// Text of the single menu entry.
	MenuTitle string `yaml:"menuTitle" json:"menuTitle,omitempty"`
	// Menu timeout, in seconds.
	Timeout int `yaml:"timeout" json:"timeout,omitempty"`
	// Appended to the default kernel command line.
	ExtraKernelArgs []string `yaml:"extraKernelArgs" json:"extraKernelArgs,omitempty"`
}

func DefaultGrub() Grub {
	return Grub{
		VolumeLabel: DefaultVolumeLabel,
		MenuTitle:   DefaultMenuTitle,
		Timeout:     DefaultGrubTimeout,
	}
}

func (g *Grub) IsValid() error {
	err := ValidateVolumeLabel(g.VolumeLabel)
	if err != nil {
		return err
	}

	if g.MenuTitle == "" {
		return fmt.Errorf("menuTitle must not be empty")
	}
	if !govalidator.IsPrintableASCII(g.MenuTitle) || strings.Contains(g.MenuTitle, "'") {
		return fmt.Errorf("invalid menuTitle (%s): must be printable ASCII without single quotes", g.MenuTitle)
	}

	if g.Timeout < 0 || g.Timeout > maxGrubTimeout {
		return fmt.Errorf("invalid timeout (%d): must be between 0 and %d", g.Timeout, maxGrubTimeout)
	}

	for _, arg := range g.ExtraKernelArgs {
		if arg == "" || !govalidator.IsPrintableASCII(arg) || strings.ContainsAny(arg, " \t\n") {
			return fmt.Errorf("invalid extraKernelArgs value (%s): must be a single printable ASCII word", arg)
		}
	}

	return nil
}

// ValidateVolumeLabel checks that label can be used both as an ISO volume id
// and inside the generated grub.cfg.
func ValidateVolumeLabel(label string) error {
	if label == "" {
		return fmt.Errorf("volumeLabel must not be empty")
	}

	if len(label) > maxVolumeLabelLength {
		return fmt.Errorf("invalid volumeLabel (%s): longer than %d characters", label, maxVolumeLabelLength)
	}

	if !govalidator.Matches(label, `^[A-Za-z0-9_.\-]+$`) {
		return fmt.Errorf("invalid volumeLabel (%s): only letters, digits, '.', '_' and '-' are allowed", label)
	}

	return nil
}
