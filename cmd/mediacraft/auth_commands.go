package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediacraft/internal/api"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the MediaCraft service",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			username, password, err = resolveCredentials(cmd, username, password)
			if err != nil {
				return err
			}
			profile, err := client.Login(cmd.Context(), username, password)
			if err != nil {
				if msg := api.ServerMessage(err); msg != "" && api.IsUnauthorized(err) {
					return fmt.Errorf("login failed: %s", msg)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", profile.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (read from stdin when omitted)")
	return cmd
}

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var username string
	var password string
	var email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			username, password, err = resolveCredentials(cmd, username, password)
			if err != nil {
				return err
			}
			profile, err := client.Register(cmd.Context(), username, password, email)
			if err != nil {
				if msg := api.ServerMessage(err); msg != "" {
					return fmt.Errorf("registration failed: %s", msg)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered account %s\n", profile.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (read from stdin when omitted)")
	cmd.Flags().StringVar(&email, "email", "", "Account email (optional)")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and discard the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.Logout(cmd.Context()); err != nil && !api.IsUnauthorized(err) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated account and its task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			profile, err := client.Profile(cmd.Context())
			if err != nil {
				if api.IsUnauthorized(err) {
					return fmt.Errorf("not logged in (run `mediacraft login`)")
				}
				return err
			}
			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, map[string]any{"profile": profile, "stats": stats})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Username: %s\n", profile.Username)
			if profile.Email != "" {
				fmt.Fprintf(out, "Email: %s\n", profile.Email)
			}
			if !profile.CreatedAt.IsZero() {
				fmt.Fprintf(out, "Member since: %s\n", formatTimestamp(profile.CreatedAt))
			}
			fmt.Fprintf(out, "Tasks: %d total, %d completed, %d failed, %d active\n",
				stats.TotalTasks, stats.CompletedTasks, stats.FailedTasks, stats.ActiveTasks)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

// resolveCredentials fills missing username/password from stdin so scripts
// can pipe them in without putting secrets on the command line.
func resolveCredentials(cmd *cobra.Command, username, password string) (string, string, error) {
	reader := bufio.NewReader(cmd.InOrStdin())

	username = strings.TrimSpace(username)
	if username == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return "", "", fmt.Errorf("read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return "", "", fmt.Errorf("username is required")
	}

	if password == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		line, err := reader.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return "", "", fmt.Errorf("password is required")
	}
	return username, password, nil
}
