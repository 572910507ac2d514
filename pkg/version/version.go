// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"

	semver "github.com/hashicorp/go-version"
)

// Version of the gotmpl binary and library.
const Version = "0.1.0"

// EnsureMinimum errors when the running Version is older than minimum.
// The CLI exposes this via --required-version so that scripts can refuse
// to render with an outdated binary.
func EnsureMinimum(minimum string) error {
	if minimum == "" {
		return nil
	}
	required, err := semver.NewVersion(minimum)
	if err != nil {
		return fmt.Errorf("Parsing required version '%s': %s", minimum, err)
	}
	current, err := semver.NewVersion(Version)
	if err != nil {
		return fmt.Errorf("Parsing current version '%s': %s", Version, err)
	}
	if current.LessThan(required) {
		return fmt.Errorf("gotmpl version '%s' does not meet the minimum required version '%s'", Version, minimum)
	}
	return nil
}
