package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/splitrail/splitrail-web/pkg/apitoken"
	"github.com/splitrail/splitrail-web/pkg/client"
)

func newTokensCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tokens",
		Aliases: []string{"token"},
		Short:   "Manage API tokens for the Splitrail CLI",
	}
	cmd.AddCommand(
		newTokensListCmd(a),
		newTokensCreateCmd(a),
		newTokensDeleteCmd(a),
		newTokensCopyCmd(a),
	)
	return cmd
}

// withStore loads the token list into a fresh store for one command run.
func (a *app) withStore(cmd *cobra.Command, fn func(*client.TokenStore) error) error {
	return a.authed(cmd.Context(), func(c *client.Client) error {
		store := client.NewTokenStore(c,
			client.WithClipboard(client.NewSystemClipboard(a.errOut)),
			client.WithLogger(slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: slog.LevelError}))),
		)
		defer store.Close()

		if err := store.Load(cmd.Context()); err != nil {
			return err
		}
		return fn(store)
	})
}

func newTokensListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			show, _ := cmd.Flags().GetBool("show")
			return a.withStore(cmd, func(store *client.TokenStore) error {
				snap := store.Snapshot()
				if len(snap.Tokens) == 0 {
					fmt.Fprintln(a.out, "No tokens created yet. Create your first token with `splitrailctl tokens create`.")
					return nil
				}
				if show {
					for _, t := range snap.Tokens {
						store.ToggleVisibility(t.ID)
					}
				}
				renderTokens(a.out, store, a.now())
				fmt.Fprintln(a.out, muted.Sprintf("You have %d of %d maximum tokens.", len(snap.Tokens), apitoken.MaxPerUser))
				return nil
			})
		},
	}
	cmd.Flags().Bool("show", false, "Show full token values")
	return cmd
}

func newTokensCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a token",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			return a.withStore(cmd, func(store *client.TokenStore) error {
				token, err := store.Create(cmd.Context(), name)
				if errors.Is(err, client.ErrTokenLimit) {
					failure.Fprintf(a.errOut, "Maximum of %d tokens reached. Delete some tokens to create new ones.\n", apitoken.MaxPerUser)
					return err
				}
				if err != nil {
					return err
				}

				success.Fprintf(a.out, "Created %s\n", token.Name)
				fmt.Fprintln(a.out, bold.Sprint(token.Token))
				fmt.Fprintln(a.out)
				fmt.Fprintln(a.out, "Configure the Splitrail CLI with:")
				fmt.Fprintf(a.out, "  splitrail config set-token %s\n", token.Token)
				fmt.Fprintf(a.out, "  splitrail config set-server %s\n", a.cfg.ServerURL())
				fmt.Fprintln(a.out, "  splitrail upload")
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "Token name (the server picks one when empty)")
	return cmd
}

func newTokensDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <token-id>",
		Short: "Delete a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(store *client.TokenStore) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				success.Fprintln(a.out, "Token deleted successfully!")
				return nil
			})
		},
	}
}

func newTokensCopyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <token-id>",
		Short: "Copy a token to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(store *client.TokenStore) error {
				if err := store.Copy(args[0]); err != nil {
					if errors.Is(err, client.ErrUnknownToken) {
						return fmt.Errorf("token %s not found", args[0])
					}
					return err
				}
				success.Fprintln(a.out, "Copied!")
				return nil
			})
		},
	}
}
