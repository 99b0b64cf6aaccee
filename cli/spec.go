// Package cli provides the command line surface of oasgen.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vitalvas/oasgen/openapi"
)

// ErrUsage matches errors caused by invalid flags or arguments.
var ErrUsage = errors.New("usage error")

type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func (e *usageError) Is(target error) bool {
	return target == ErrUsage
}

func usage(err error) error {
	return &usageError{err: err}
}

// formatValue is a pflag.Value accepting json, yaml and yml.
type formatValue struct {
	format string
}

var _ pflag.Value = (*formatValue)(nil)

func (f *formatValue) String() string {
	return f.format
}

func (f *formatValue) Set(s string) error {
	format, err := openapi.ParseFormat(s)
	if err != nil {
		return errors.New("must be one of json, yaml, yml")
	}
	f.format = format
	return nil
}

func (f *formatValue) Type() string {
	return "format"
}

// NewSpecCommand returns the "spec" command. It prints the document built
// by the synthesizer source returns and, with --output, writes it to a
// file as well.
func NewSpecCommand(source func() (*openapi.Synthesizer, error)) *cobra.Command {
	format := &formatValue{format: openapi.FormatJSON}
	var (
		output string
		indent int
	)

	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Print the OpenAPI document",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return usage(err)
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if indent < 0 {
				return usage(fmt.Errorf("invalid indent %d", indent))
			}

			s, err := source()
			if err != nil {
				return err
			}
			doc, err := s.Document(false)
			if err != nil {
				return err
			}

			var data []byte
			if format.format == openapi.FormatYAML {
				data, err = doc.YAML()
			} else {
				data, err = doc.JSON(indent)
				data = append(data, '\n')
			}
			if err != nil {
				return fmt.Errorf("render document: %w", err)
			}

			if _, err := cmd.OutOrStdout().Write(data); err != nil {
				return err
			}

			if output == "" {
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "OpenAPI document written to %s\n", output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.VarP(format, "format", "f", "output format: json, yaml or yml")
	flags.StringVarP(&output, "output", "o", "", "also write the document to this file")
	flags.IntVar(&indent, "indent", 2, "JSON indentation")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usage(err)
	})
	return cmd
}

// ReportError prints err on the command's error stream in red.
func ReportError(cmd *cobra.Command, err error) {
	color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}
