package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/franz/melodeon/internal/store"
)

// settingKeys are the recognized settings-table keys, with secrets
// flagged so 'config show' can redact them
var settingKeys = map[string]bool{
	store.SettingDiscogsToken:   true,
	store.SettingLastFMKey:      true,
	store.SettingLastFMSecret:   true,
	store.SettingAcoustIDKey:    true,
	store.SettingCoverDirectory: false,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored settings and credentials",
	Long: `Config manages the settings stored inside the library database:
catalog credentials and the cover art directory. Values stored here take
precedence over the config file and environment.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting in the library database",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored settings, secrets redacted",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, ok := settingKeys[key]; !ok {
		known := make([]string, 0, len(settingKeys))
		for k := range settingKeys {
			known = append(known, k)
		}
		sort.Strings(known)
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(known, ", "))
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetSetting(key, args[1]); err != nil {
		return err
	}
	fmt.Printf("Set %s\n", key)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, ok := st.GetSetting(key)
		switch {
		case !ok:
			fmt.Printf("%-22s (not set)\n", key)
		case settingKeys[key]:
			fmt.Printf("%-22s %s\n", key, redact(value))
		default:
			fmt.Printf("%-22s %s\n", key, value)
		}
	}
	return nil
}

func redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
