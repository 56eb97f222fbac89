// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypesAreDistinct(t *testing.T) {
	errorTypes := []error{
		ErrTypeFilesystemOperation,
		ErrTypeExternalTool,
		ErrTypeConfigValidation,
		ErrTypeInvalidInput,
	}

	for i, errType1 := range errorTypes {
		for j, errType2 := range errorTypes {
			if i != j {
				assert.False(t, errors.Is(errType1, errType2))
			}
		}
	}

	assert.Equal(t, "filesystem-operation", ErrTypeFilesystemOperation.Error())
	assert.Equal(t, "external-tool", ErrTypeExternalTool.Error())
}

func TestLiveIsoErrorWithoutCause(t *testing.T) {
	err := NewLiveIsoError(ErrTypeInvalidInput, "test message")

	assert.Equal(t, "test message", err.Error())
	assert.Nil(t, err.Unwrap())
	assert.ErrorIs(t, err, ErrTypeInvalidInput)
	assert.NotErrorIs(t, err, ErrTypeExternalTool)
}

func TestLiveIsoErrorWithCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewLiveIsoErrorWithCause(ErrTypeFilesystemOperation, "failed to write file", cause)

	assert.Equal(t, "failed to write file:\npermission denied", err.Error())
	assert.ErrorIs(t, err, ErrTypeFilesystemOperation)
	assert.ErrorIs(t, err, cause)
}

func TestLiveIsoErrorWrapped(t *testing.T) {
	err := fmt.Errorf("step failed:\n%w", NewLiveIsoError(ErrTypeExternalTool, "dracut failed"))

	var liveIsoErr *LiveIsoError
	assert.ErrorAs(t, err, &liveIsoErr)
	assert.Equal(t, "dracut failed", liveIsoErr.Message)
	assert.ErrorIs(t, err, ErrTypeExternalTool)
}
