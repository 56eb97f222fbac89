// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"fmt"
	"path/filepath"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/file"
	"github.com/sirupsen/logrus"
)

func addLiveIsoRelease(log *logrus.Entry, squashfsDir string, toolVersion string, buildTime string,
	buildId string,
) error {
	releaseFilePath := filepath.Join(squashfsDir, releaseFileRelPath)

	log.Infof("Creating live ISO release file (%s)", releaseFilePath)

	lines := []string{
		fmt.Sprintf("%s=\"%s\"", "TOOL_VERSION", toolVersion),
		fmt.Sprintf("%s=\"%s\"", "BUILD_DATE", buildTime),
		fmt.Sprintf("%s=\"%s\"", "BUILD_ID", buildId),
	}
	err := file.WriteLines(lines, releaseFilePath)
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeFilesystemOperation,
			fmt.Sprintf("failed to write release file (%s)", releaseFilePath), err)
	}

	return nil
}
