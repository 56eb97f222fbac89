// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"path/filepath"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/isogenerator"
)

const (
	squashfsDirName = "squashfs"
	isoDirName      = "iso"

	// Relative to the squashfs tree.
	dracutConfigDir    = "etc/dracut.conf.d"
	dracutConfigFile   = "01-liveos.conf"
	dracutImagesDir    = "usr/lib/dracut/images"
	initramfsImageFile = "initramfs.img"
	releaseFileRelPath = "etc/liveiso-release"

	// Relative to the iso tree.
	grubConfigDir     = "EFI/BOOT"
	grubConfigFile    = "grub.cfg"
	liveOSDir         = "LiveOS"
	squashfsImageFile = "squashfs.img"
	pxebootDir        = "images/pxeboot"
	isoKernelFile     = "vmlinuz"
	isoInitrdFile     = "initrd.img"
)

// BuildPaths are the directories and files of one build, computed once from
// the root working directory.
type BuildPaths struct {
	RootDir     string
	SquashfsDir string
	IsoDir      string
	OutputDir   string
}

func NewBuildPaths(rootDir string, outputDir string) BuildPaths {
	if outputDir == "" {
		outputDir = rootDir
	}

	return BuildPaths{
		RootDir:     rootDir,
		SquashfsDir: filepath.Join(rootDir, squashfsDirName),
		IsoDir:      filepath.Join(rootDir, isoDirName),
		OutputDir:   outputDir,
	}
}

// Directories lists every directory that must exist before the first step runs.
func (p BuildPaths) Directories() []string {
	return []string{p.RootDir, p.SquashfsDir, p.IsoDir, p.OutputDir}
}

func (p BuildPaths) DracutConfigDir() string {
	return dracutConfigPath(p.SquashfsDir)
}

func (p BuildPaths) DracutConfigPath() string {
	return filepath.Join(p.DracutConfigDir(), dracutConfigFile)
}

func (p BuildPaths) InitramfsPath() string {
	return filepath.Join(p.SquashfsDir, dracutImagesDir, initramfsImageFile)
}

func (p BuildPaths) ReleaseFilePath() string {
	return filepath.Join(p.SquashfsDir, releaseFileRelPath)
}

func (p BuildPaths) GrubConfigPath() string {
	return grubConfigPath(p.IsoDir)
}

func (p BuildPaths) SquashfsImagePath() string {
	return filepath.Join(p.IsoDir, liveOSDir, squashfsImageFile)
}

func (p BuildPaths) IsoKernelPath() string {
	return filepath.Join(p.IsoDir, pxebootDir, isoKernelFile)
}

func (p BuildPaths) IsoInitrdPath() string {
	return filepath.Join(p.IsoDir, pxebootDir, isoInitrdFile)
}

func (p BuildPaths) IsoPath() string {
	return filepath.Join(p.OutputDir, isogenerator.IsoFileName)
}

// IsoRequiredFiles are the ISO-relative paths a bootable live ISO must contain.
func IsoRequiredFiles() []string {
	return []string{
		grubConfigDir + "/" + grubConfigFile,
		liveOSDir + "/" + squashfsImageFile,
		pxebootDir + "/" + isoKernelFile,
		pxebootDir + "/" + isoInitrdFile,
	}
}

func dracutConfigPath(squashfsDir string) string {
	return filepath.Join(squashfsDir, dracutConfigDir)
}

func grubConfigPath(isoDir string) string {
	return filepath.Join(isoDir, grubConfigDir, grubConfigFile)
}
