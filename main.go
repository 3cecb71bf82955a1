// xliffmerge merges Angular i18n master files into per-language XLIFF, XMB
// and XTB files and optionally auto-translates new units.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/minios-linux/xliffmerge/config"
	"github.com/minios-linux/xliffmerge/console"
	"github.com/minios-linux/xliffmerge/i18n"
	"github.com/minios-linux/xliffmerge/pipeline"
	"github.com/minios-linux/xliffmerge/settings"
	"github.com/minios-linux/xliffmerge/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
)

// exitCode carries a non-zero process status through cobra.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

type rootFlags struct {
	profile       string
	quiet         bool
	verbose       bool
	autoTranslate bool
	apiKey        string
	provider      string
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	root := &cobra.Command{
		Use:   "xliffmerge [flags] [language...]",
		Short: i18n.T("Merge Angular i18n master files into language files"),
		Long: i18n.T(`xliffmerge merges the master file extracted by Angular (XLIFF 1.2,
XLIFF 2.0 or XMB) into one file per language. Existing translations are
kept, new units are added and units removed from the master are deleted.

Options are read from a profile (default xliffmerge.json, also .yaml and
.toml) below the key "xliffmergeOptions". Languages given on the command
line replace the languages of the profile.

Commands:
  auth        Manage translation provider API keys
  version     Show version information`),
		Args:          validLanguages,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := runMerge(cmd.Context(), cmd, f, args); code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}

	root.Flags().StringVarP(&f.profile, "profile", "p", "", i18n.T("Profile file (default xliffmerge.json)"))
	root.Flags().BoolVarP(&f.quiet, "quiet", "q", false, i18n.T("Only show errors"))
	root.Flags().BoolVarP(&f.verbose, "verbose", "v", false, i18n.T("Show debug output"))
	root.Flags().BoolVar(&f.autoTranslate, "auto-translate", false, i18n.T("Auto-translate new units of all languages"))
	root.Flags().StringVar(&f.apiKey, "api-key", "", i18n.T("API key of the translation provider"))
	root.Flags().StringVar(&f.provider, "provider", "", i18n.T("Translation provider (google, openai, groq, ollama, custom-openai)"))

	root.AddCommand(
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

// validLanguages accepts any number of positional language codes.
func validLanguages(cmd *cobra.Command, args []string) error {
	if err := cobra.ArbitraryArgs(cmd, args); err != nil {
		return err
	}
	for _, arg := range args {
		if _, err := language.Parse(arg); err != nil {
			return fmt.Errorf(i18n.T("invalid language %q: %v"), arg, err)
		}
	}
	return nil
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	var code exitCode
	switch {
	case errors.As(err, &code):
		os.Exit(int(code))
	case err != nil:
		console.New(os.Stderr, false, false).Error(err)
		os.Exit(1)
	}
}

func runMerge(ctx context.Context, cmd *cobra.Command, f rootFlags, args []string) int {
	log := console.New(cmd.ErrOrStderr(), f.quiet, f.verbose)

	o, err := config.Load(f.profile)
	if err != nil {
		log.Error(err)
		return 1
	}
	if err := config.LoadDotEnv(o.BaseDir); err != nil {
		log.Warn(err)
	}
	applyFlags(o, f, args)
	log.SetLevel(console.Level(o.Quiet, o.Verbose))

	return (&pipeline.Runner{Options: o, Log: log}).Run(ctx)
}

// applyFlags overrides profile options with command line values.
func applyFlags(o *config.Options, f rootFlags, languages []string) {
	o.Quiet = o.Quiet || f.quiet
	o.Verbose = o.Verbose || f.verbose
	if f.autoTranslate {
		o.Autotranslate = config.Autotranslate{All: true}
	}
	if f.apiKey != "" {
		o.APIKey = f.apiKey
	}
	if f.provider != "" {
		o.Provider = f.provider
	}
	if len(languages) > 0 {
		o.Languages = append([]string(nil), languages...)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  i18n.T("Display version, commit hash, and build date."),
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "xliffmerge version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// auth (API key store)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: i18n.T("Manage translation provider API keys"),
		Long: i18n.T(`Manage the provider settings used for auto-translation.

Keys are looked up in this order: --api-key or the profile's apikey, the
profile's apikeyfile, the XLIFFMERGE_APIKEY environment variable (also
read from .env), the key store. The profile's providerUrl and model win
over the stored endpoint and model.

Examples:
  xliffmerge auth set google AIza...         Store a Google Cloud API key
  xliffmerge auth set ollama --base-url http://gpu:11434/v1 --model llama3
  xliffmerge auth remove google              Remove the Google key
  xliffmerge auth remove                     Remove all keys
  xliffmerge auth list                       Show stored keys`),
	}

	cmd.AddCommand(
		newAuthSetCmd(),
		newAuthRemoveCmd(),
		newAuthListCmd(),
	)

	return cmd
}

func providerIDs() []string {
	ids := make([]string, 0, len(translate.DefaultProviders()))
	for id := range translate.DefaultProviders() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func completeProviders(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	providers := translate.DefaultProviders()
	var out []string
	for _, id := range providerIDs() {
		out = append(out, fmt.Sprintf("%s\t%s", id, providers[id].Name))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func newAuthSetCmd() *cobra.Command {
	var entry settings.Entry

	cmd := &cobra.Command{
		Use:               "set <provider> [key]",
		Short:             i18n.T("Store an API key"),
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeProviders,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.ToLower(args[0])
			if _, ok := translate.DefaultProviders()[id]; !ok {
				return fmt.Errorf(i18n.T("unknown provider %q, valid: %s"), id, strings.Join(providerIDs(), ", "))
			}
			if len(args) == 2 {
				entry.Key = args[1]
			} else if entry.BaseURL == "" && entry.Model == "" {
				fmt.Fprint(cmd.ErrOrStderr(), i18n.T("API key: "))
				var err error
				if entry.Key, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			if entry.IsZero() {
				return errors.New(i18n.T("nothing to store: give a key, --base-url or --model"))
			}
			store, err := settings.OpenDefault()
			if err != nil {
				return err
			}
			if err := store.Update(id, entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), i18n.T("%s credentials stored in %s")+"\n", id, store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&entry.BaseURL, "base-url", "", i18n.T("API base URL of OpenAI compatible providers"))
	cmd.Flags().StringVar(&entry.Model, "model", "", i18n.T("Model used by OpenAI compatible providers"))

	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "remove [provider]",
		Aliases:           []string{"rm"},
		Short:             i18n.T("Remove stored API keys (all if no provider is given)"),
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeProviders,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.OpenDefault()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				if err := store.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("All stored credentials removed"))
				return nil
			}
			id := strings.ToLower(args[0])
			if err := store.Delete(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), i18n.T("%s credentials removed")+"\n", id)
			return nil
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   i18n.T("Show stored credentials and status"),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.OpenDefault()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%s\n", blue(i18n.T("Stored Credentials")))
			fmt.Fprintln(out, strings.Repeat("─", 60))

			configured := 0
			for _, id := range providerIDs() {
				entry, ok := store.Get(id)
				if ok {
					configured++
				}
				var status string
				switch {
				case entry.Key != "":
					status = fmt.Sprintf("%s (key: %s)", green(i18n.T("configured")), settings.MaskKey(entry.Key))
				case ok:
					status = fmt.Sprintf("%s (%s)", green(i18n.T("configured")), i18n.T("no key"))
				default:
					status = red(i18n.T("not configured"))
				}
				fmt.Fprintf(out, "  %-14s %s\n", id, status)
				if entry.BaseURL != "" {
					fmt.Fprintf(out, "  %14s endpoint: %s\n", "", entry.BaseURL)
				}
				if entry.Model != "" {
					fmt.Fprintf(out, "  %14s model:    %s\n", "", entry.Model)
				}
			}

			fmt.Fprintf(out, "\n  "+i18n.N("%d provider configured", "%d providers configured", configured)+"\n", configured)

			fmt.Fprintf(out, "\n  %s\n", yellow(i18n.T("Environment Variables")))
			if envKey := os.Getenv(settings.EnvAPIKey); envKey != "" {
				fmt.Fprintf(out, "  %s: %s %s\n", settings.EnvAPIKey, green(settings.MaskKey(envKey)), i18n.T("(overrides stored keys)"))
			} else {
				fmt.Fprintf(out, "  %s: %s\n", settings.EnvAPIKey, red(i18n.T("not set")))
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
