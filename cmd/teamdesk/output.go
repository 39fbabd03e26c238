package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validateOutputFormat(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want table, json, or yaml)", value)
	}
}

// outputFormat resolves the --output flag. Without one, terminals get tables
// and pipes get JSON.
func (c *commandContext) outputFormat(cmd *cobra.Command) string {
	if c.outputFlag != nil {
		if value := strings.ToLower(strings.TrimSpace(*c.outputFlag)); value != "" {
			return value
		}
	}
	if isTerminal(cmd.OutOrStdout()) {
		return formatTable
	}
	return formatJSON
}

// render writes v in the selected format. table builds the terminal view and
// may be nil for results that only make sense as structured data.
func (c *commandContext) render(cmd *cobra.Command, v any, table func() string) error {
	switch c.outputFormat(cmd) {
	case formatYAML:
		return writeYAML(cmd, v)
	case formatTable:
		if table != nil {
			out := table()
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No results")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}
	}
	return writeJSON(cmd, v)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
