package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/contactbook/internal/session"
	"github.com/me/contactbook/pkg/contactapi"
	"github.com/me/contactbook/pkg/model"
)

func newLoginCmd() *cobra.Command {
	var userName, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the token",
		Long:  "Exchange a login and password for a bearer token and store it in ~/.contactbook/credentials.json.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if userName == "" {
				if userName, err = prompt(cmd, in, "Login: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(cmd, in, "Password: "); err != nil {
					return err
				}
			}

			creds := model.Credentials{UserName: userName, Password: password}
			if errs := creds.Validate(); len(errs) > 0 {
				return fmt.Errorf("invalid credentials: %s", errs[0])
			}

			token, err := api.Authenticate(cmd.Context(), creds)
			switch {
			case contactapi.IsAuthError(err), errors.Is(err, contactapi.ErrEmptyToken):
				return fmt.Errorf("login failed: invalid login or password")
			case err != nil:
				return fmt.Errorf("login failed: %w", err)
			}

			claims, err := session.ClaimsFromToken(token)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if claims.Role() == "" {
				return fmt.Errorf("login failed: the account has no role")
			}
			saved := credentials{
				Token:    token,
				Username: fallback(claims.Name, userName),
				Role:     claims.Role(),
				APIURL:   flagAPIURL,
				SavedAt:  time.Now().UTC(),
			}
			path, err := saveCredentials(saved)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", saved.Username, saved.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userName, "user", "u", "", "Login (prompted if omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted if omitted)")
	return cmd
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.TrimSuffix(label, ": "))
	}
	return line, nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := removeCredentials()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", path)
			return nil
		},
	}
}

type whoami struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	APIURL     string `json:"api_url"`
	TokenValid bool   `json:"token_valid"`
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved identity and whether the API still accepts it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := loadCredentials()
			if err != nil || creds.Token == "" {
				return fmt.Errorf("not logged in; run 'contactctl login'")
			}

			info := whoami{
				Username:   creds.Username,
				Role:       creds.Role,
				APIURL:     flagAPIURL,
				TokenValid: api.CheckToken(cmd.Context()),
			}
			return emit(cmd, info, func(w io.Writer) {
				valid := "no"
				if info.TokenValid {
					valid = "yes"
				}
				fmt.Fprintf(w, "User:\t%s\n", fallback(info.Username, "(unknown)"))
				fmt.Fprintf(w, "Role:\t%s\n", fallback(info.Role, "(none)"))
				fmt.Fprintf(w, "API:\t%s\n", info.APIURL)
				fmt.Fprintf(w, "Token valid:\t%s\n", valid)
			})
		},
	}
}
