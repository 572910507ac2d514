// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package feature

import "fmt"

// Names of features that can be toggled
const (
	Noop                = "noop"
	DynamicTemplateName = "dynamic-template-name"
)

// allFeatures is the total list of features. It must contain all the constants defined, above.
var allFeatures = []string{Noop, DynamicTemplateName}

// Flags returns the singleton instance of feature flags.
func Flags() *Flagset {
	// NOT thread-safe.
	if instance == nil {
		instance = newFlagSet()
	}
	return instance
}

// Flagset is a collection of flags.
type Flagset struct {
	flags map[string]bool
}

// Enable toggles the named feature on.
// Subsequent calls to IsEnabled() for that same named feature will return true.
func (f *Flagset) Enable(name string) *Flagset {
	f.ensureExists(name)
	f.flags[name] = true
	return f
}

// Disable toggles the named feature off.
func (f *Flagset) Disable(name string) *Flagset {
	f.ensureExists(name)
	f.flags[name] = false
	return f
}

// IsEnabled reports whether the named feature has been enabled.
func (f *Flagset) IsEnabled(name string) bool {
	f.ensureExists(name)
	return f.flags[name]
}

func (f *Flagset) ensureExists(name string) {
	if _, exists := f.flags[name]; !exists {
		panic(fmt.Sprintf("unknown feature flag %q", name))
	}
}

// ResetForTesting discards the singleton instance; the next call to Flags()
// yields a fresh one with all features disabled.
func ResetForTesting() {
	instance = nil
}

func newFlagSet() *Flagset {
	flags := map[string]bool{}
	for _, name := range allFeatures {
		flags[name] = false
	}
	return &Flagset{flags: flags}
}

var instance *Flagset
