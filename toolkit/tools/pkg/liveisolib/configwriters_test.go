// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/liveisoapi"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expectedDefaultDracutConfig = `mdadmconf="no"
lvmconf="no"
squash_compress="xz"
add_dracutmodules+=" livenet dmsquash-live dmsquash-live-ntfs convertfs pollcdrom qemu qemu-net "
omit_dracutmodules+=" plymouth "
hostonly="no"
early_microcode="no"
`

const expectedDefaultGrubConfig = `search --no-floppy --set=root -l 'Fedora-LiveOS'
set default="0"
set timeout=10

menuentry 'Start Fedora LiveOS' {
    echo 'Loading kernel ...'
    linux /images/pxeboot/vmlinuz root=live:CDLABEL=Fedora-LiveOS rd.live.image quiet rhgb rd.luks=0 rd.md=0 rd.dm=0
    echo 'Loading initrd ...'
    initrd /images/pxeboot/initrd.img
}
`

func TestDracutConfigContentDefault(t *testing.T) {
	assert.Equal(t, expectedDefaultDracutConfig, DracutConfigContent(liveisoapi.DefaultDracut()))
}

func TestDracutConfigContentNoModules(t *testing.T) {
	config := liveisoapi.Dracut{SquashCompression: liveisoapi.SquashfsCompressionZstd}
	assert.Equal(t, "mdadmconf=\"no\"\nlvmconf=\"no\"\nsquash_compress=\"zstd\"\nhostonly=\"no\"\nearly_microcode=\"no\"\n",
		DracutConfigContent(config))
}

func TestConfigureDracutIsIdempotent(t *testing.T) {
	log, hook := newTestLogger()
	squashfsDir := filepath.Join(t.TempDir(), "squashfs")
	configPath := filepath.Join(squashfsDir, "etc/dracut.conf.d/01-liveos.conf")

	err := ConfigureDracut(log, squashfsDir, liveisoapi.DefaultDracut())
	require.NoError(t, err)
	first, err := os.ReadFile(configPath)
	require.NoError(t, err)

	err = ConfigureDracut(log, squashfsDir, liveisoapi.DefaultDracut())
	require.NoError(t, err)
	second, err := os.ReadFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, expectedDefaultDracutConfig, string(second))
	assert.True(t, hook.Contains(logrus.InfoLevel, "Dracut configuration created at"))
}

func TestConfigureDracutTruncatesExistingFile(t *testing.T) {
	log, _ := newTestLogger()
	squashfsDir := t.TempDir()
	configPath := filepath.Join(squashfsDir, "etc/dracut.conf.d/01-liveos.conf")

	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte(expectedDefaultDracutConfig+expectedDefaultDracutConfig), 0o644))

	err := ConfigureDracut(log, squashfsDir, liveisoapi.DefaultDracut())
	require.NoError(t, err)

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, expectedDefaultDracutConfig, string(content))
}

func TestConfigureDracutDirectoryCreationFails(t *testing.T) {
	log, hook := newTestLogger()
	squashfsDir := t.TempDir()

	// "etc" is a regular file, so etc/dracut.conf.d cannot be created.
	blocker := filepath.Join(squashfsDir, "etc")
	require.NoError(t, os.WriteFile(blocker, []byte("blocker"), 0o644))

	err := ConfigureDracut(log, squashfsDir, liveisoapi.DefaultDracut())
	assert.ErrorIs(t, err, ErrTypeFilesystemOperation)
	assert.ErrorContains(t, err, "failed to create directory")
	assert.True(t, hook.Contains(logrus.ErrorLevel, "Failed to create dracut configuration"))

	_, err = os.Stat(filepath.Join(squashfsDir, "etc/dracut.conf.d/01-liveos.conf"))
	assert.Error(t, err)

	content, err := os.ReadFile(blocker)
	require.NoError(t, err)
	assert.Equal(t, "blocker", string(content))
}

func TestGrubConfigContentDefault(t *testing.T) {
	assert.Equal(t, expectedDefaultGrubConfig, GrubConfigContent(liveisoapi.DefaultGrub()))
}

func TestGrubKernelCommandLineExtraArgs(t *testing.T) {
	grub := liveisoapi.DefaultGrub()
	grub.VolumeLabel = "MyLive"
	grub.ExtraKernelArgs = []string{"console=ttyS0,115200"}

	assert.Equal(t,
		"root=live:CDLABEL=MyLive rd.live.image quiet rhgb rd.luks=0 rd.md=0 rd.dm=0 console=ttyS0,115200",
		GrubKernelCommandLine(grub))
}

func TestConfigureGrubContainsMenuLabel(t *testing.T) {
	log, _ := newTestLogger()
	isoDir := filepath.Join(t.TempDir(), "iso")

	grub := liveisoapi.DefaultGrub()
	grub.MenuTitle = "Boot My Live System"
	grub.Timeout = 3

	err := ConfigureGrub(log, isoDir, grub)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(isoDir, "EFI/BOOT/grub.cfg"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "menuentry 'Boot My Live System' {")
	assert.Contains(t, string(content), "set timeout=3\n")
}

func TestConfigureGrubIsIdempotent(t *testing.T) {
	log, _ := newTestLogger()
	isoDir := t.TempDir()
	configPath := filepath.Join(isoDir, "EFI/BOOT/grub.cfg")

	require.NoError(t, ConfigureGrub(log, isoDir, liveisoapi.DefaultGrub()))
	first, err := os.ReadFile(configPath)
	require.NoError(t, err)

	require.NoError(t, ConfigureGrub(log, isoDir, liveisoapi.DefaultGrub()))
	second, err := os.ReadFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestConfigureGrubDirectoryCreationFails(t *testing.T) {
	log, hook := newTestLogger()

	// The iso directory itself is a regular file.
	isoDir := filepath.Join(t.TempDir(), "iso")
	require.NoError(t, os.WriteFile(isoDir, []byte("not a directory"), 0o644))

	err := ConfigureGrub(log, isoDir, liveisoapi.DefaultGrub())
	assert.ErrorIs(t, err, ErrTypeFilesystemOperation)
	assert.NotErrorIs(t, err, ErrTypeExternalTool)
	assert.True(t, hook.Contains(logrus.ErrorLevel, "Failed to create grub configuration"))

	_, err = os.Stat(filepath.Join(isoDir, "EFI/BOOT/grub.cfg"))
	assert.Error(t, err)
}
