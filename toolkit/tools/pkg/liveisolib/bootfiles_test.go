// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/initrdutils"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/shell"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/testutils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectKernel(t *testing.T) {
	rootDir := t.TempDir()
	testutils.CreateTestRootfs(t, rootDir, "6.8.5-301.fc40.x86_64")
	testutils.CreateTestRootfs(t, rootDir, testutils.TestKernelRelease)

	kernel, err := selectKernel(rootDir, "")
	require.NoError(t, err)
	assert.Equal(t, testutils.TestKernelRelease, kernel.Release)

	kernel, err = selectKernel(rootDir, "6.8.5-301.fc40.x86_64")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootDir, "usr/lib/modules/6.8.5-301.fc40.x86_64/vmlinuz"), kernel.ImagePath)

	_, err = selectKernel(rootDir, "5.14.0")
	assert.ErrorIs(t, err, ErrTypeInvalidInput)
	assert.ErrorContains(t, err, "(version 5.14.0)")
}

func TestResolveInitramfsKernelVersion(t *testing.T) {
	log, hook := newTestLogger()
	rootDir := t.TempDir()

	assert.Equal(t, "6.0.0", resolveInitramfsKernelVersion(log, rootDir, "6.0.0"))

	assert.Equal(t, "", resolveInitramfsKernelVersion(log, rootDir, ""))
	assert.True(t, hook.Contains(logrus.WarnLevel, "No kernel found in the squashfs tree"))

	testutils.CreateTestRootfs(t, rootDir, testutils.TestKernelRelease)
	assert.Equal(t, testutils.TestKernelRelease, resolveInitramfsKernelVersion(log, rootDir, ""))
}

func TestInspectInitramfs(t *testing.T) {
	log, hook := newTestLogger()

	initrdDir := filepath.Join(t.TempDir(), "initrd")
	require.NoError(t, os.MkdirAll(filepath.Join(initrdDir, "usr/bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(initrdDir, "usr/bin/sh"), []byte("sh"), 0o755))

	initrdPath := filepath.Join(t.TempDir(), "initrd.img")
	require.NoError(t, initrdutils.CreateInitrdImageFromFolder(initrdDir, initrdPath))

	inspectInitramfs(log, initrdPath)
	assert.True(t, hook.Contains(logrus.WarnLevel, "does not contain the dmsquash-live module"))

	inspectInitramfs(log, filepath.Join(t.TempDir(), "missing.img"))
	assert.True(t, hook.Contains(logrus.WarnLevel, "Could not inspect initramfs"))
}

func TestStageBootFilesCopyFailure(t *testing.T) {
	log, _ := newTestLogger()
	paths := NewBuildPaths(t.TempDir(), "")
	testutils.CreateTestRootfs(t, paths.SquashfsDir, testutils.TestKernelRelease)

	runner := testutils.NewRecordingRunner()
	runner.Results["cp"] = shell.Result{ExitCode: 1, Stderr: []byte("cp: cannot stat\n")}

	err := stageBootFiles(context.Background(), log, runner, []string{"cp"}, paths, "")
	assert.ErrorIs(t, err, ErrTypeExternalTool)
	assert.ErrorContains(t, err, "cannot stat")

	// The initramfs copy is not attempted after the kernel copy failed.
	assert.Len(t, runner.Commands(), 1)
	assert.DirExists(t, filepath.Join(paths.IsoDir, "images/pxeboot"))
}

func TestStageBootFilesSudoPrefix(t *testing.T) {
	log, _ := newTestLogger()
	paths := NewBuildPaths(t.TempDir(), "")
	testutils.CreateTestRootfs(t, paths.SquashfsDir, testutils.TestKernelRelease)

	runner := testutils.NewRecordingRunner()
	err := stageBootFiles(context.Background(), log, runner, []string{"sudo", "cp"}, paths, testutils.TestKernelRelease)
	require.NoError(t, err)

	commands := runner.Commands()
	require.Len(t, commands, 2)
	assert.Equal(t, "sudo", commands[1].Name)
	assert.Equal(t, []string{"cp", paths.InitramfsPath(), paths.IsoInitrdPath()}, commands[1].Args)
}
