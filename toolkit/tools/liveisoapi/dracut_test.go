// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisoapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDracutIsValid(t *testing.T) {
	dracut := DefaultDracut()
	assert.NoError(t, dracut.IsValid())

	dracut.KernelVersion = "6.11.6-200.fc40.x86_64"
	assert.NoError(t, dracut.IsValid())
}

func TestDracutIsValidBadModule(t *testing.T) {
	dracut := DefaultDracut()
	dracut.AddModules = append(dracut.AddModules, "bad module")
	assert.ErrorContains(t, dracut.IsValid(), "invalid dracut module name (bad module)")

	dracut = DefaultDracut()
	dracut.OmitModules = []string{"\"quoted\""}
	assert.ErrorContains(t, dracut.IsValid(), "invalid omitModules")
}

func TestDracutIsValidBadKernelVersion(t *testing.T) {
	dracut := DefaultDracut()
	dracut.KernelVersion = "6.11 extra"
	assert.ErrorContains(t, dracut.IsValid(), "invalid kernelVersion (6.11 extra)")
}

func TestSquashfsCompressionIsValid(t *testing.T) {
	for _, compression := range SupportedSquashfsCompressions() {
		assert.NoError(t, SquashfsCompression(compression).IsValid())
	}
	assert.ErrorContains(t, SquashfsCompression("").IsValid(), "invalid squashfs compression ()")
}
