// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package orderedmap provides a string-keyed map that preserves insertion
// order and can produce its keys in sorted order.
package orderedmap
