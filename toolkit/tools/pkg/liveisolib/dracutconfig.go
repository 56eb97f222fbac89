// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/file"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/liveisoapi"
	"github.com/sirupsen/logrus"
)

// DracutConfigContent renders the dracut.conf.d drop-in for the live rootfs.
func DracutConfigContent(config liveisoapi.Dracut) string {
	lines := []string{
		`mdadmconf="no"`,
		`lvmconf="no"`,
		fmt.Sprintf(`squash_compress="%s"`, config.SquashCompression),
	}

	if len(config.AddModules) > 0 {
		lines = append(lines, fmt.Sprintf(`add_dracutmodules+=" %s "`, strings.Join(config.AddModules, " ")))
	}

	if len(config.OmitModules) > 0 {
		lines = append(lines, fmt.Sprintf(`omit_dracutmodules+=" %s "`, strings.Join(config.OmitModules, " ")))
	}

	lines = append(lines,
		`hostonly="no"`,
		`early_microcode="no"`,
	)

	return strings.Join(lines, "\n") + "\n"
}

// ConfigureDracut writes <squashfsDir>/etc/dracut.conf.d/01-liveos.conf,
// replacing any existing file.
func ConfigureDracut(log *logrus.Entry, squashfsDir string, config liveisoapi.Dracut) error {
	log = log.WithField("component", "dracut-config")

	configDir := dracutConfigPath(squashfsDir)
	configPath := filepath.Join(configDir, dracutConfigFile)

	err := writeConfigFile(configDir, configPath, DracutConfigContent(config))
	if err != nil {
		log.Errorf("Failed to create dracut configuration: %v", err)
		return err
	}

	log.Infof("Dracut configuration created at (%s)", configPath)
	return nil
}

func writeConfigFile(configDir string, configPath string, content string) error {
	err := os.MkdirAll(configDir, os.ModePerm)
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeFilesystemOperation,
			fmt.Sprintf("failed to create directory (%s)", configDir), err)
	}

	err = file.Write(content, configPath)
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeFilesystemOperation,
			fmt.Sprintf("failed to write file (%s)", configPath), err)
	}

	return nil
}
