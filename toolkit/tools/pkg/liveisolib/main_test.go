// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/logger"
	"github.com/sirupsen/logrus"
)

var (
	workingDir string
	tmpDir     string
)

func TestMain(m *testing.M) {
	var err error

	log := logger.NewStderrLogger()

	workingDir, err = os.Getwd()
	if err != nil {
		log.Panicf("Failed to get working directory, error: %s", err)
	}

	tmpDir = filepath.Join(workingDir, "_tmp")

	err = os.MkdirAll(tmpDir, os.ModePerm)
	if err != nil {
		log.Panicf("Failed to create tmp directory, error: %s", err)
	}

	retVal := m.Run()

	err = os.RemoveAll(tmpDir)
	if err != nil {
		log.Warnf("Failed to cleanup tmp dir (%s). Error: %s", tmpDir, err)
	}

	os.Exit(retVal)
}

func newTestLogger() (*logrus.Entry, *logger.MemoryLogHook) {
	log, hook := logger.NewMemoryLogger()
	return logrus.NewEntry(log), hook
}

// testBuildDir returns an empty directory under _tmp named after the test.
func testBuildDir(t *testing.T) string {
	dir := filepath.Join(tmpDir, t.Name())
	err := os.RemoveAll(dir)
	if err != nil {
		t.Fatalf("failed to clean (%s): %v", dir, err)
	}
	return dir
}
