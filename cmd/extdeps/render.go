// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extdeps/extdeps/internal/config"
	"github.com/extdeps/extdeps/internal/issue"

	"gopkg.in/yaml.v3"
)

// writeStructured encodes v as JSON or YAML. It returns false for text
// output so the caller can render its own representation.
func writeStructured(w io.Writer, format config.OutputFormat, v any) (bool, error) {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their Format method; verbose mode also renders the
// matching troubleshooting guide.
func formatErrorForDisplay(err error, verbose bool) string {
	var sb strings.Builder
	sb.WriteString(ErrorStyle.Render("Error: "))

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		sb.WriteString(ae.Format(verbose))
	} else {
		sb.WriteString(err.Error())
	}

	if verbose {
		if guide := issue.ForError(err); guide != nil {
			if rendered, renderErr := guide.Render("auto"); renderErr == nil {
				sb.WriteString("\n")
				sb.WriteString(rendered)
			}
		}
	}
	return sb.String()
}

// orNone renders empty values as a muted placeholder.
func orNone(s string) string {
	if s == "" {
		return SubtitleStyle.Render("(none)")
	}
	return s
}

// printKV prints an aligned key/value line.
func printKV(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s %s\n", CmdStyle.Render(fmt.Sprintf("%-18s", key+":")), value)
}
