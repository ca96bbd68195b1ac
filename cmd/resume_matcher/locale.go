package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/i18n"
)

var localeCmd = &cobra.Command{
	Use:   "locale",
	Short: "Show or change the saved language preference",
}

var localeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the saved locale",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := commandDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		_, err = fmt.Fprintln(cmd.OutOrStdout(), d.resolver.Current())
		return err
	},
}

var localeSetCmd = &cobra.Command{
	Use:       "set <locale>",
	Short:     "Save the locale used by later runs",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"en", "pt", "es"},
	RunE: func(cmd *cobra.Command, args []string) error {
		locale, ok := i18n.ParseLocale(args[0])
		if !ok {
			return fmt.Errorf("unsupported locale %q (supported: %v)", args[0], i18n.Locales())
		}

		d, err := commandDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.resolver.SetLocale(cmd.Context(), locale); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), d.resolver.Resolve(locale, "language."+string(locale)))
		return err
	},
}

var translateCmd = &cobra.Command{
	Use:   "translate <key>...",
	Short: "Resolve translation keys in the current locale",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := commandDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		out := cmd.OutOrStdout()
		for _, key := range args {
			if _, err := fmt.Fprintf(out, "%s\t%s\n", key, d.resolver.Resolve(d.locale, key)); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	localeCmd.AddCommand(localeGetCmd, localeSetCmd)
	rootCmd.AddCommand(localeCmd, translateCmd)
}
