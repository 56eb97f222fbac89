// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package kernelversion

import (
	"strconv"
	"strings"
)

// Version is a dotted numeric version. Missing trailing components compare as
// zero, so 6.8 == 6.8.0.
type Version []int

func (v Version) Cmp(other Version) int {
	count := max(len(v), len(other))

	for i := 0; i < count; i++ {
		c1 := 0
		if i < len(v) {
			c1 = v[i]
		}

		c2 := 0
		if i < len(other) {
			c2 = other[i]
		}

		switch {
		case c1 > c2:
			return 1
		case c1 < c2:
			return -1
		}
	}

	return 0
}

func (v Version) Gt(other Version) bool {
	return v.Cmp(other) > 0
}

func (v Version) Eq(other Version) bool {
	return v.Cmp(other) == 0
}

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, p := range v {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}
