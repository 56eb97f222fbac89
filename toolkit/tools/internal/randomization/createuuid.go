// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package randomization

import (
	"fmt"

	"github.com/google/uuid"
)

// CreateBuildId returns a random (version 4) UUID used to tag a single build.
func CreateBuildId() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate build id:\n%w", err)
	}

	return id.String(), nil
}

// ParseBuildId validates a build id previously produced by CreateBuildId.
func ParseBuildId(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid build id (%s):\n%w", s, err)
	}

	if id.Version() != 4 {
		return uuid.Nil, fmt.Errorf("invalid build id (%s): expected a version 4 UUID, got version (%d)", s, id.Version())
	}

	return id, nil
}
