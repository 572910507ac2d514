// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// FileSourceOpts locate the template input and the render output.
type FileSourceOpts struct {
	TemplateFile string
	OutputFile   string
}

func (s *FileSourceOpts) Set(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.TemplateFile, "file", "f", "-",
		"Template file to render ('-' reads stdin)")
	cmd.Flags().StringVarP(&s.OutputFile, "output", "o", "",
		"Write rendered output to a file instead of stdout")
}

// TemplateName names the template in diagnostics: the file base name, or
// "stdin".
func (s *FileSourceOpts) TemplateName() string {
	if s.TemplateFile == "-" {
		return "stdin"
	}
	return filepath.Base(s.TemplateFile)
}

func (s *FileSourceOpts) ReadTemplate() (string, error) {
	if s.TemplateFile == "-" {
		bs, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("Reading template from stdin: %s", err)
		}
		return string(bs), nil
	}
	bs, err := os.ReadFile(s.TemplateFile)
	if err != nil {
		return "", fmt.Errorf("Reading template file: %s", err)
	}
	return string(bs), nil
}

func (s *FileSourceOpts) WriteOutput(output string) error {
	if s.OutputFile == "" {
		_, err := os.Stdout.WriteString(output)
		return err
	}
	err := os.WriteFile(s.OutputFile, []byte(output), 0600)
	if err != nil {
		return fmt.Errorf("Writing output file: %s", err)
	}
	return nil
}
