// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"fmt"
	"strconv"
)

// parseCursor parses a stream resume token: a non-negative decimal
// integer. Only ASCII digits are accepted — anything else is a caller
// error, not a value to coerce. The empty string means "from the
// beginning".
func parseCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	for _, c := range cursor {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid character %q in cursor", c)
		}
	}
	value, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil {
		// All-digit input can still overflow int64; a wrapped value
		// would index backwards from the stream start.
		return 0, fmt.Errorf("cursor %q out of range", cursor)
	}
	return value, nil
}
