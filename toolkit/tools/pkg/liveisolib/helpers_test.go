// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"archive/tar"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeUnsafeTar(t *testing.T, path string) {
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	tw := tar.NewWriter(f)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "../../etc/cron.d/evil",
		Mode:     0o644,
		Typeflag: tar.TypeReg,
	}))
	require.NoError(t, tw.Close())
}
