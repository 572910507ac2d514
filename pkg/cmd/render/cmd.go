// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	cmdcore "carvel.dev/gotmpl/pkg/cmd/core"
	"carvel.dev/gotmpl/pkg/feature"
	"carvel.dev/gotmpl/pkg/template"
	"carvel.dev/gotmpl/pkg/version"
)

type RenderOptions struct {
	Debug bool

	FileSourceOpts  FileSourceOpts
	DataValuesFlags DataValuesFlags
	TemplateFlags   TemplateFlags
	WatchFlags      WatchFlags

	RequiredVersion string
}

func NewOptions() *RenderOptions {
	return &RenderOptions{}
}

func NewCmd(o *RenderOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "render",
		Aliases: []string{"r"},
		Short:   "Render a template against data values",
		RunE:    func(_ *cobra.Command, _ []string) error { return o.Run() },
	}
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug output")
	cmd.Flags().StringVar(&o.RequiredVersion, "required-version", "",
		"Fail if the gotmpl version is below the given minimum")
	o.FileSourceOpts.Set(cmd)
	o.DataValuesFlags.Set(cmd)
	o.TemplateFlags.Set(cmd)
	o.WatchFlags.Set(cmd)
	return cmd
}

// TemplateFlags expose engine options on the command line.
type TemplateFlags struct {
	LeftDelim        string
	RightDelim       string
	Strict           bool
	DynamicTemplates bool
}

func (s *TemplateFlags) Set(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.LeftDelim, "left-delim", "", "Override the left action delimiter (default '{{')")
	cmd.Flags().StringVar(&s.RightDelim, "right-delim", "", "Override the right action delimiter (default '}}')")
	cmd.Flags().BoolVar(&s.Strict, "strict", false, "Fail on missing map keys in field accesses instead of rendering them as <nil>")
	cmd.Flags().BoolVar(&s.DynamicTemplates, "dynamic-templates", false,
		"Allow '{{template (pipeline)}}' with a computed template name")
}

func (o *RenderOptions) Run() error {
	if err := version.EnsureMinimum(o.RequiredVersion); err != nil {
		return err
	}
	if o.TemplateFlags.DynamicTemplates {
		feature.Flags().Enable(feature.DynamicTemplateName)
	}

	ui := cmdcore.NewPlainUI(o.Debug)
	t1 := time.Now()

	defer func() {
		ui.Debugf("total: %s\n", time.Since(t1))
	}()

	if o.WatchFlags.Enabled {
		return o.runWatch(ui)
	}
	return o.renderOnce(ui)
}

func (o *RenderOptions) renderOnce(ui cmdcore.PlainUI) error {
	output, err := o.render(ui)
	if err != nil {
		return err
	}
	return o.FileSourceOpts.WriteOutput(output)
}

func (o *RenderOptions) render(ui cmdcore.PlainUI) (string, error) {
	source, err := o.FileSourceOpts.ReadTemplate()
	if err != nil {
		return "", err
	}

	dataValues, err := o.DataValuesFlags.Values()
	if err != nil {
		return "", err
	}
	ui.Debugf("data values: %s\n", dataValues)

	tpl := template.New(o.FileSourceOpts.TemplateName())
	tpl.Options.LeftDelim = o.TemplateFlags.LeftDelim
	tpl.Options.RightDelim = o.TemplateFlags.RightDelim
	tpl.Options.Strict = o.TemplateFlags.Strict

	if err := tpl.Parse(source); err != nil {
		return "", err
	}
	return tpl.Render(dataValues)
}

func (o *RenderOptions) runWatch(ui cmdcore.PlainUI) error {
	render := func() {
		output, err := o.render(ui)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gotmpl: Error: %s\n", err)
			return
		}
		if err := o.FileSourceOpts.WriteOutput(output); err != nil {
			fmt.Fprintf(os.Stderr, "gotmpl: Error: %s\n", err)
		}
	}
	watched := append([]string{o.FileSourceOpts.TemplateFile}, o.DataValuesFlags.FromFiles...)
	return o.WatchFlags.Watch(ui, watched, render)
}
