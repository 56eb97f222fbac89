// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisoapi

import (
	"fmt"
	"slices"
)

type SquashfsCompression string

const (
	SquashfsCompressionGzip SquashfsCompression = "gzip"
	SquashfsCompressionLzo  SquashfsCompression = "lzo"
	SquashfsCompressionLz4  SquashfsCompression = "lz4"
	SquashfsCompressionXz   SquashfsCompression = "xz"
	SquashfsCompressionZstd SquashfsCompression = "zstd"
)

var supportedSquashfsCompressions = []string{
	string(SquashfsCompressionGzip),
	string(SquashfsCompressionLzo),
	string(SquashfsCompressionLz4),
	string(SquashfsCompressionXz),
	string(SquashfsCompressionZstd),
}

func (c SquashfsCompression) IsValid() error {
	if !slices.Contains(supportedSquashfsCompressions, string(c)) {
		return fmt.Errorf("invalid squashfs compression (%s)", c)
	}

	return nil
}

// SupportedSquashfsCompressions returns every compressor accepted by mksquashfs -comp.
func SupportedSquashfsCompressions() []string {
	return supportedSquashfsCompressions
}

type Squashfs struct {
	Compression SquashfsCompression `yaml:"compression" json:"compression,omitempty"`
}

func DefaultSquashfs() Squashfs {
	return Squashfs{
		Compression: SquashfsCompressionXz,
	}
}

func (s *Squashfs) IsValid() error {
	return s.Compression.IsValid()
}
