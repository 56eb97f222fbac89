// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package osinfo

import (
	"fmt"
	"path/filepath"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/file"
	"gopkg.in/ini.v1"
)

const (
	unknownDistro  = "Unknown Distro"
	unknownVersion = "Unknown Version"
)

var osReleasePaths = []string{
	"etc/os-release",
	"usr/lib/os-release",
}

type OsRelease struct {
	Id         string `yaml:"id,omitempty"`
	Name       string `yaml:"name,omitempty"`
	Version    string `yaml:"version,omitempty"`
	VersionId  string `yaml:"versionId,omitempty"`
	PrettyName string `yaml:"prettyName,omitempty"`
}

// ReadOsRelease parses the os-release file of the OS installed under rootDir.
func ReadOsRelease(rootDir string) (OsRelease, error) {
	for _, relativePath := range osReleasePaths {
		path := filepath.Join(rootDir, relativePath)

		exists, err := file.PathExists(path)
		if err != nil {
			return OsRelease{}, fmt.Errorf("failed to check if (%s) exists:\n%w", path, err)
		}
		if !exists {
			continue
		}

		return parseOsReleaseFile(path)
	}

	return OsRelease{}, fmt.Errorf("no os-release file found under (%s)", rootDir)
}

func parseOsReleaseFile(path string) (OsRelease, error) {
	// Values such as ANSI_COLOR contain ';' which ini would otherwise treat as
	// the start of a comment.
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return OsRelease{}, fmt.Errorf("failed to parse os-release file (%s):\n%w", path, err)
	}

	section := cfg.Section(ini.DefaultSection)
	release := OsRelease{
		Id:         section.Key("ID").String(),
		Name:       section.Key("NAME").String(),
		Version:    section.Key("VERSION").String(),
		VersionId:  section.Key("VERSION_ID").String(),
		PrettyName: section.Key("PRETTY_NAME").String(),
	}
	return release, nil
}

// GetDistroAndVersion returns the distribution and version of the host machine.
func GetDistroAndVersion() (string, string) {
	release, err := ReadOsRelease("/")
	if err != nil {
		return unknownDistro, unknownVersion
	}

	distro := release.Name
	if distro == "" {
		distro = unknownDistro
	}

	version := release.Version
	if version == "" {
		version = unknownVersion
	}

	return distro, version
}
