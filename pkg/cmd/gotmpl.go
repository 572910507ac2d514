// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/cppforlife/cobrautil"
	"github.com/spf13/cobra"

	cmdrender "carvel.dev/gotmpl/pkg/cmd/render"
	"carvel.dev/gotmpl/pkg/version"
)

type GotmplOptions struct{}

func NewDefaultGotmplOptions() *GotmplOptions {
	return &GotmplOptions{}
}

func NewDefaultGotmplCmd() *cobra.Command {
	return NewGotmplCmd(NewDefaultGotmplOptions())
}

func NewGotmplCmd(o *GotmplOptions) *cobra.Command {
	cmd := cmdrender.NewCmd(cmdrender.NewOptions())

	cmd.Use = "gotmpl"
	cmd.Aliases = nil
	cmd.Version = version.Version
	cmd.Short = "gotmpl renders Go text templates"
	cmd.Long = `gotmpl renders Go text templates against data values
supplied inline or from YAML, JSON, or TOML files.`

	// Affects children as well
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	// Disable docs header
	cmd.DisableAutoGenTag = true

	cmd.AddCommand(NewVersionCmd(NewVersionOptions()))
	cmd.AddCommand(cmdrender.NewCmd(cmdrender.NewOptions())) // render as explicit subcommand

	// Reconfigure Commands
	cobrautil.VisitCommands(cmd, cobrautil.ReconfigureCmdWithSubcmd,
		cobrautil.WrapRunEForCmd(cobrautil.ResolveFlagsForCmd))

	return cmd
}
