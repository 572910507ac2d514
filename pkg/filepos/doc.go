// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package filepos provides the concept of Position: a source name (usually a
template name) and a line number within that source, optionally with the
exact byte offset.

Positions are crucial when reporting parse and execution errors to the user.
Not all Positions point within a source (e.g. values constructed in memory).
The zero-value of Position (created using NewUnknownPosition()) represents
this case.
*/
package filepos
