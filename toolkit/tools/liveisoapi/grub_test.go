// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisoapi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrubIsValid(t *testing.T) {
	grub := DefaultGrub()
	assert.NoError(t, grub.IsValid())

	grub.ExtraKernelArgs = []string{"console=ttyS0,115200", "rd.debug"}
	assert.NoError(t, grub.IsValid())
}

func TestGrubIsValidBadLabel(t *testing.T) {
	grub := DefaultGrub()

	grub.VolumeLabel = ""
	assert.ErrorContains(t, grub.IsValid(), "volumeLabel must not be empty")

	grub.VolumeLabel = "my live"
	assert.ErrorContains(t, grub.IsValid(), "only letters, digits")

	grub.VolumeLabel = strings.Repeat("L", 33)
	assert.ErrorContains(t, grub.IsValid(), "longer than 32 characters")
}

func TestGrubIsValidBadTitle(t *testing.T) {
	grub := DefaultGrub()
	grub.MenuTitle = "It's live"
	assert.ErrorContains(t, grub.IsValid(), "invalid menuTitle")

	grub.MenuTitle = ""
	assert.ErrorContains(t, grub.IsValid(), "menuTitle must not be empty")
}

func TestGrubIsValidBadTimeout(t *testing.T) {
	grub := DefaultGrub()
	grub.Timeout = -1
	assert.ErrorContains(t, grub.IsValid(), "invalid timeout (-1)")
}

func TestGrubIsValidBadKernelArg(t *testing.T) {
	grub := DefaultGrub()
	grub.ExtraKernelArgs = []string{"quiet splash"}
	assert.ErrorContains(t, grub.IsValid(), "invalid extraKernelArgs value (quiet splash)")
}
