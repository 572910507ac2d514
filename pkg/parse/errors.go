// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package parse

import (
	"fmt"

	"carvel.dev/gotmpl/pkg/filepos"
)

// Error is a parse error annotated with the position of the offending token.
type Error struct {
	Position *filepos.Position
	Token    string
	Msg      string
}

func (e *Error) Error() string {
	return fmt.Sprintf("template: %s: %s", e.Position.AsCompactString(), e.Msg)
}
