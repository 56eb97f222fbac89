// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"errors"
	"fmt"
)

// Error categories. Match with errors.Is.
var (
	ErrTypeFilesystemOperation = errors.New("filesystem-operation")
	ErrTypeExternalTool        = errors.New("external-tool")
	ErrTypeConfigValidation    = errors.New("config-validation")
	ErrTypeInvalidInput        = errors.New("invalid-input")
)

var (
	ErrBuilderAlreadyRun   = errors.New("image builder has already been run")
	ErrNoKernelInRootfs    = errors.New("no kernel image found in the squashfs tree")
	ErrUnsafeRootfsArchive = errors.New("rootfs archive contains entries outside of the extraction root")
)

type LiveIsoError struct {
	Type    error
	Message string
	Cause   error
}

func (e *LiveIsoError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s:\n%v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *LiveIsoError) Unwrap() error {
	return e.Cause
}

func (e *LiveIsoError) Is(target error) bool {
	return errors.Is(e.Type, target)
}

func NewLiveIsoError(errorType error, message string) *LiveIsoError {
	return &LiveIsoError{
		Type:    errorType,
		Message: message,
	}
}

func NewLiveIsoErrorWithCause(errorType error, message string, cause error) *LiveIsoError {
	return &LiveIsoError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}
