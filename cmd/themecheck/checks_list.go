package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"themecheck/internal/check"
	"themecheck/internal/checks"
)

var checksCmd = &cobra.Command{
	Use:          "checks",
	Short:        "List the built-in checks",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runChecks,
}

func init() {
	checksCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type checkInfo struct {
	ID          string   `json:"id"`
	Severity    string   `json:"severity"`
	Kinds       []string `json:"kinds"`
	Fixable     bool     `json:"fixable"`
	Recommended bool     `json:"recommended"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
}

func describeChecks(list []check.Check) []checkInfo {
	out := make([]checkInfo, 0, len(list))
	for _, c := range list {
		meta := c.Meta()
		kinds := make([]string, 0, len(meta.Kinds))
		for _, k := range meta.Kinds {
			kinds = append(kinds, k.String())
		}
		out = append(out, checkInfo{
			ID:          meta.ID,
			Severity:    strings.ToLower(meta.Severity.String()),
			Kinds:       kinds,
			Fixable:     meta.Fixable,
			Recommended: meta.Docs.Recommended,
			Description: meta.Docs.Description,
			URL:         meta.Docs.URL,
		})
	}
	return out
}

func runChecks(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	infos := describeChecks(checks.All())
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case "", "pretty":
		return renderChecksTable(cmd.OutOrStdout(), infos)
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func renderChecksTable(out io.Writer, infos []checkInfo) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("CHECK", "SEVERITY", "KINDS", "FIX", "DEFAULT", "DESCRIPTION")
	for _, info := range infos {
		t.Row(info.ID, info.Severity, strings.Join(info.Kinds, ","), yesNo(info.Fixable), yesNo(info.Recommended), info.Description)
	}
	_, err := fmt.Fprintln(out, t.Render())
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
