package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artpar/svcclient/internal/config"
	"github.com/artpar/svcclient/internal/cookies"
	"github.com/artpar/svcclient/internal/cookies/file"
	"github.com/artpar/svcclient/internal/cookies/sqlite"
	"github.com/artpar/svcclient/internal/service"
)

// CookiesOptions holds options shared by the cookies subcommands.
type CookiesOptions struct {
	Domain     string
	CookieDir  string
	CookieDB   string
	ShowValues bool
	JSON       bool
}

// NewCookiesCommand creates the cookies command.
func NewCookiesCommand() *cobra.Command {
	opts := &CookiesOptions{}

	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Inspect and clear stored cookies",
	}

	cmd.PersistentFlags().StringVar(&opts.CookieDir, "cookie-dir", "", "Cookie directory (default: user config dir)")
	cmd.PersistentFlags().StringVar(&opts.CookieDB, "cookie-db", "", "Cookie SQLite database")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored cookies",
		Long:  "List the cookies stored for a service, or the stored services when --domain is not given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCookiesList(cmd, opts)
		},
	}
	listCmd.Flags().StringVar(&opts.Domain, "domain", "", "Service domain")
	listCmd.Flags().BoolVar(&opts.ShowValues, "show-values", false, "Print cookie values")
	listCmd.Flags().BoolVar(&opts.JSON, "json", false, "Output cookies as JSON")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored cookies of a service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCookiesClear(cmd, opts)
		},
	}
	clearCmd.Flags().StringVar(&opts.Domain, "domain", "", "Service domain")
	clearCmd.MarkFlagRequired("domain")

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired cookies from a SQLite cookie database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCookiesPrune(cmd, opts)
		},
	}

	cmd.AddCommand(listCmd, clearCmd, pruneCmd)
	return cmd
}

func openCookieStore(cmd *cobra.Command, opts *CookiesOptions) (cookies.Store, error) {
	if opts.CookieDir != "" && opts.CookieDB != "" {
		return nil, errors.New("--cookie-dir and --cookie-db are mutually exclusive")
	}
	if opts.CookieDB != "" {
		return sqlite.New(opts.CookieDB)
	}

	dir := opts.CookieDir
	if dir == "" {
		dir = config.DefaultCookieDir()
	}
	return file.New(dir, file.WithLogger(newLogger(cmd, cmd.ErrOrStderr())))
}

func partition(domain string) string {
	return service.Config{Domain: domain}.Partition()
}

func runCookiesList(cmd *cobra.Command, opts *CookiesOptions) error {
	store, err := openCookieStore(cmd, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if opts.Domain == "" {
		domains, err := store.Domains(ctx)
		if err != nil {
			return err
		}
		if opts.JSON {
			return json.NewEncoder(out).Encode(domains)
		}
		fmt.Fprintln(out, headingStyle.Render("Services"))
		for _, d := range domains {
			fmt.Fprintf(out, "  %s\n", d)
		}
		return nil
	}

	list, err := cookies.NewJar(store).Cookies(ctx, partition(opts.Domain))
	if err != nil {
		return err
	}

	if opts.JSON {
		records := make([]cookies.Record, 0, len(list))
		for _, c := range list {
			r := c.ToRecord()
			if !opts.ShowValues {
				r.Value = ""
			}
			records = append(records, r)
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Cookies for %s (%d)", partition(opts.Domain), len(list))))
	if len(list) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDOMAIN\tPATH\tEXPIRES\tSECURE\tVALUE")
	for _, c := range list {
		expires := "session"
		if !c.IsSession() {
			expires = cookies.FormatExpires(c.Expires)
		}
		value := "***"
		if opts.ShowValues {
			value = c.Value
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n", c.Name, c.Domain, c.Path, expires, c.Secure, value)
	}
	return w.Flush()
}

func runCookiesClear(cmd *cobra.Command, opts *CookiesOptions) error {
	store, err := openCookieStore(cmd, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	domain := partition(opts.Domain)
	if err := cookies.NewJar(store).Clear(context.Background(), domain); err != nil {
		return fmt.Errorf("failed to clear cookies for %s: %w", domain, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared cookies for %s\n", domain)
	return nil
}

func runCookiesPrune(cmd *cobra.Command, opts *CookiesOptions) error {
	if opts.CookieDB == "" {
		return errors.New("prune requires --cookie-db")
	}
	store, err := sqlite.New(opts.CookieDB)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.DeleteExpired(context.Background())
	if err != nil {
		return fmt.Errorf("failed to prune cookies: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired cookies\n", n)
	return nil
}
