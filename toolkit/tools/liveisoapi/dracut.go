// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisoapi

import (
	"fmt"

	"github.com/asaskevich/govalidator"
)

const dracutModuleNamePattern = `^[A-Za-z0-9][A-Za-z0-9_.\-]*$`

// Dracut controls the dracut.conf.d drop-in written into the rootfs.
type Dracut struct {
	// Kernel release to build the initramfs for. Empty means dracut's default.
	KernelVersion string `yaml:"kernelVersion" json:"kernelVersion,omitempty"`
	// Compressor dracut uses for squashed modules.
	SquashCompression SquashfsCompression `yaml:"squashCompression" json:"squashCompression,omitempty"`
	AddModules        []string            `yaml:"addModules" json:"addModules,omitempty"`
	OmitModules       []string            `yaml:"omitModules" json:"omitModules,omitempty"`
}

func DefaultDracut() Dracut {
	return Dracut{
		SquashCompression: SquashfsCompressionXz,
		AddModules: []string{
			"livenet", "dmsquash-live", "dmsquash-live-ntfs", "convertfs", "pollcdrom", "qemu", "qemu-net",
		},
		OmitModules: []string{
			"plymouth",
		},
	}
}

func (d *Dracut) IsValid() error {
	if d.KernelVersion != "" && !govalidator.Matches(d.KernelVersion, `^[A-Za-z0-9_.+\-]+$`) {
		return fmt.Errorf("invalid kernelVersion (%s)", d.KernelVersion)
	}

	err := d.SquashCompression.IsValid()
	if err != nil {
		return fmt.Errorf("invalid squashCompression:\n%w", err)
	}

	err = validateModuleNames(d.AddModules)
	if err != nil {
		return fmt.Errorf("invalid addModules:\n%w", err)
	}

	err = validateModuleNames(d.OmitModules)
	if err != nil {
		return fmt.Errorf("invalid omitModules:\n%w", err)
	}

	return nil
}

func validateModuleNames(modules []string) error {
	for _, module := range modules {
		if !govalidator.Matches(module, dracutModuleNamePattern) {
			return fmt.Errorf("invalid dracut module name (%s)", module)
		}
	}
	return nil
}
