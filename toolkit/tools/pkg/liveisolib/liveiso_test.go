// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/testutils"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/liveisoapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("", ConfigOverrides{})
	require.NoError(t, err)
	assert.Equal(t, liveisoapi.DefaultConfig(), config)
}

func TestLoadConfigOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
buildDir: /var/tmp/from-file
grub:
  volumeLabel: FromFile
squashfs:
  compression: zstd
`), 0o644))

	config, err := LoadConfig(configPath, ConfigOverrides{
		OutputDir:   "/srv/out",
		VolumeLabel: "Override",
	})
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/from-file", config.BuildDir)
	assert.Equal(t, "/srv/out", config.OutputDir)
	assert.Equal(t, "Override", config.Grub.VolumeLabel)
	assert.Equal(t, liveisoapi.SquashfsCompressionZstd, config.Squashfs.Compression)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("unknownField: 1\n"), 0o644))

	_, err := LoadConfig(configPath, ConfigOverrides{})
	assert.ErrorIs(t, err, ErrTypeConfigValidation)
}

func TestLoadConfigInvalidOverride(t *testing.T) {
	_, err := LoadConfig("", ConfigOverrides{VolumeLabel: "has space"})
	assert.ErrorIs(t, err, ErrTypeConfigValidation)
}

func TestCreateLiveIso(t *testing.T) {
	log, _ := newTestLogger()
	buildDir := testBuildDir(t)

	config := liveisoapi.DefaultConfig()
	config.BuildDir = buildDir
	config.Iso.Verify = false

	runner := testutils.NewRecordingRunner()
	testutils.CreateTestRootfs(t, filepath.Join(buildDir, squashfsDirName), testutils.TestKernelRelease)

	report, err := CreateLiveIso(context.Background(), log, config, WithRunner(runner))
	require.NoError(t, err)
	assert.True(t, report.Succeeded)
	assert.Len(t, runner.Commands(), 5)

	config.BuildDir = ""
	report, err = CreateLiveIso(context.Background(), log, config, WithRunner(runner))
	assert.ErrorIs(t, err, ErrTypeConfigValidation)
	assert.Nil(t, report)
}
