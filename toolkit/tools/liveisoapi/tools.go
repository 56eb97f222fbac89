// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisoapi

import (
	"fmt"
)

// Tools holds the command prefix used for each external program.
// For example, [sudo, dracut] runs dracut through sudo.
type Tools struct {
	Tar           []string `yaml:"tar" json:"tar,omitempty"`
	Mksquashfs    []string `yaml:"mksquashfs" json:"mksquashfs,omitempty"`
	Dracut        []string `yaml:"dracut" json:"dracut,omitempty"`
	Cp            []string `yaml:"cp" json:"cp,omitempty"`
	Grub2Mkrescue []string `yaml:"grub2Mkrescue" json:"grub2Mkrescue,omitempty"`
}

func DefaultTools() Tools {
	return Tools{
		Tar:           []string{"tar"},
		Mksquashfs:    []string{"mksquashfs"},
		Dracut:        []string{"dracut"},
		Cp:            []string{"cp"},
		Grub2Mkrescue: []string{"grub2-mkrescue"},
	}
}

func (t *Tools) IsValid() error {
	tools := []struct {
		name   string
		prefix []string
	}{
		{"tar", t.Tar},
		{"mksquashfs", t.Mksquashfs},
		{"dracut", t.Dracut},
		{"cp", t.Cp},
		{"grub2Mkrescue", t.Grub2Mkrescue},
	}

	for _, tool := range tools {
		if len(tool.prefix) == 0 {
			return fmt.Errorf("invalid %s: command must not be empty", tool.name)
		}

		for _, arg := range tool.prefix {
			if arg == "" {
				return fmt.Errorf("invalid %s: command contains an empty argument", tool.name)
			}
		}
	}

	return nil
}
