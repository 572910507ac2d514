// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package feature provides a global "Feature Flag" facility used to toggle
optional template syntax on or off.

To "register" a new feature,
1. add a new constant
2. add that constant to the `allFeatures` slice

Initialize the flags, enabling desired features:

	feature.Flags().Enable(<feature-constant>)

To then circuit-break functionality behind a feature flag:

	if feature.Flags().IsEnabled(<feature-constant>) {
	    ...
	}
*/
package feature
