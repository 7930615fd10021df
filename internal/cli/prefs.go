package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hellonolen/triopia-mail/internal/prefs"
)

func init() {
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsResetCmd)
	rootCmd.AddCommand(prefsCmd)
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Inspect or reset stored navigation preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored navigation preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.prefStore.Degraded() {
			fmt.Fprintln(cmd.OutOrStdout(), "preference storage unavailable (in-memory mode)")
		}

		p := a.prefStore.Load(cmd.Context())
		printPrefs(cmd, p)
		return nil
	},
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all stored navigation preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		kv, err := prefs.OpenSQLite(cfg.PrefsPath(), cfg.Prefs.BusyTimeoutMs)
		if err != nil {
			return fmt.Errorf("open preference database: %w", err)
		}
		defer kv.Close()

		if err := kv.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("reset preferences: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "preferences reset")
		return nil
	},
}

func printPrefs(cmd *cobra.Command, p prefs.Prefs) {
	out := cmd.OutOrStdout()

	expanded := make([]string, 0, len(p.Expanded))
	for id, on := range p.Expanded {
		if on {
			expanded = append(expanded, id)
		}
	}
	sort.Strings(expanded)

	fmt.Fprintf(out, "expanded sources:   %s\n", orNone(strings.Join(expanded, ", ")))
	fmt.Fprintf(out, "inboxes collapsed:  %s\n", formatFlag(p.InboxesCollapsed))
	fmt.Fprintf(out, "tools collapsed:    %s\n", formatFlag(p.ToolsCollapsed))
	fmt.Fprintf(out, "settings collapsed: %s\n", formatFlag(p.SettingsCollapsed))
	fmt.Fprintf(out, "last source:        %s\n", orNone(p.LastSource))
	if p.PagerSize > 0 {
		fmt.Fprintf(out, "pager size:         %d\n", p.PagerSize)
	} else {
		fmt.Fprintf(out, "pager size:         (default)\n")
	}
}

func formatFlag(v *bool) string {
	if v == nil {
		return "(unset)"
	}
	return fmt.Sprintf("%t", *v)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
