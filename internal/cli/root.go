package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/splitrail/splitrail-web/pkg/client"
)

// app carries what every command needs. Commands read the config lazily so
// that "config" subcommands work without a server.
type app struct {
	configPath string
	cfg        *Config
	in         io.Reader
	out        io.Writer
	errOut     io.Writer
	httpClient *http.Client
	now        func() time.Time
}

func (a *app) load() error {
	if a.cfg != nil {
		return nil
	}
	if a.configPath == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		a.configPath = p
	}
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) save() error {
	return SaveConfig(a.configPath, a.cfg)
}

func (a *app) client() *client.Client {
	opts := []client.Option{client.WithSession(a.cfg.AccessToken)}
	if a.httpClient != nil {
		opts = append(opts, client.WithHTTPClient(a.httpClient))
	}
	return client.New(a.cfg.ServerURL(), opts...)
}

var errLogin = errors.New("you are not signed in, run `splitrailctl login` first")

// authed runs fn with a signed-in client. An expired session is refreshed
// once with the stored refresh token.
func (a *app) authed(ctx context.Context, fn func(*client.Client) error) error {
	if err := a.load(); err != nil {
		return err
	}
	if a.cfg.AccessToken == "" {
		return errLogin
	}

	c := a.client()
	err := fn(c)

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || a.cfg.RefreshToken == "" {
		return err
	}

	tokens, refreshErr := c.Refresh(ctx, a.cfg.RefreshToken)
	if refreshErr != nil {
		return errLogin
	}
	a.cfg.AccessToken = tokens.AccessToken
	a.cfg.RefreshToken = tokens.RefreshToken
	if err := a.save(); err != nil {
		return err
	}
	c.SetSession(tokens.AccessToken)
	return fn(c)
}

// NewRootCommand builds the splitrailctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		now:    time.Now,
	}
	return newRootCommand(a)
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "splitrailctl",
		Short:         "Manage your Splitrail account and CLI tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if p, _ := cmd.Flags().GetString("config"); p != "" {
				a.configPath = p
			}
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().String("config", "", "Path to the config file (default ~/.splitrail/splitrailctl.yaml)")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newTokensCmd(a),
		newStatsCmd(a),
		newLeaderboardCmd(a),
		newConfigCmd(a),
	)
	return root
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with GitHub",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			c := a.client()
			auth := client.NewAuthControl(c)

			tokens, err := auth.SignIn(cmd.Context(), "github", func(ctx context.Context, consentURL string) (string, error) {
				fmt.Fprintln(a.out, "Open this URL in your browser to sign in:")
				fmt.Fprintln(a.out, bold.Sprint(consentURL))
				fmt.Fprint(a.out, "Paste the code shown after signing in: ")
				line, err := bufio.NewReader(a.in).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return "", err
				}
				return strings.TrimSpace(line), nil
			})
			if err != nil {
				return fmt.Errorf("[login]: %w", err)
			}

			a.cfg.AccessToken = tokens.AccessToken
			a.cfg.RefreshToken = tokens.RefreshToken
			if err := a.save(); err != nil {
				return err
			}

			c.SetSession(tokens.AccessToken)
			if me, err := c.Me(cmd.Context()); err == nil {
				success.Fprintf(a.out, "Signed in as %s\n", me.DisplayName)
			} else {
				success.Fprintln(a.out, "Signed in")
			}
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			if a.cfg.RefreshToken != "" {
				if err := client.NewAuthControl(a.client()).SignOut(cmd.Context(), a.cfg.RefreshToken); err != nil {
					failure.Fprintf(a.errOut, "warning: %v\n", err)
				}
			}
			a.cfg.AccessToken = ""
			a.cfg.RefreshToken = ""
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.authed(cmd.Context(), func(c *client.Client) error {
				me, err := c.Me(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s (@%s)\n", bold.Sprint(me.DisplayName), me.Username)
				if me.Email != "" {
					fmt.Fprintln(a.out, me.Email)
				}
				fmt.Fprintf(a.out, "https://github.com/%s\n", me.Username)
				return nil
			})
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show your usage totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			locale, _ := cmd.Flags().GetString("locale")
			return a.authed(cmd.Context(), func(c *client.Client) error {
				stats, err := c.Stats(cmd.Context(), locale)
				if err != nil {
					return err
				}
				renderStats(a.out, stats)
				return nil
			})
		},
	}
	cmd.Flags().String("locale", "", "Locale for numbers and dates, e.g. de-DE")
	return cmd
}

func newLeaderboardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top users by tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			board, err := a.client().Leaderboard(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderLeaderboard(a.out, board)
			return nil
		},
	}
	cmd.Flags().Int("limit", 0, "Number of entries (server default when 0)")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change the local configuration",
	}

	setServer := &cobra.Command{
		Use:   "set-server <url>",
		Short: "Set the Splitrail server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			a.cfg.Server = strings.TrimRight(args[0], "/")
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Server set to %s\n", a.cfg.Server)
			return nil
		},
	}

	setSession := &cobra.Command{
		Use:   "set-session <access-token>",
		Short: "Use an existing session token instead of logging in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			a.cfg.AccessToken = args[0]
			a.cfg.RefreshToken = ""
			return a.save()
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			session := "not signed in"
			if a.cfg.AccessToken != "" {
				session = "signed in"
			}
			fmt.Fprintf(a.out, "config:  %s\nserver:  %s\nsession: %s\n", a.configPath, a.cfg.ServerURL(), session)
			return nil
		},
	}

	cmd.AddCommand(setServer, setSession, show)
	return cmd
}
