// Package cli implements contactctl, a command-line client for the contacts
// and identity API behind the contact book.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/contactbook/internal/logging"
	"github.com/me/contactbook/pkg/contactapi"
)

var (
	flagAPIURL    string
	flagInsecure  bool
	flagTimeout   time.Duration
	flagOutput    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	api    *contactapi.Client
)

// defaultAPIURL returns the default API URL, checking CONTACTBOOK_API_URL first.
func defaultAPIURL() string {
	if s := os.Getenv("CONTACTBOOK_API_URL"); s != "" {
		return s
	}
	return contactapi.DefaultBaseURL
}

// NewRootCmd creates the root cobra command for contactctl.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "contactctl",
		Short: "contactctl manages contacts, roles and users",
		Long:  "contactctl talks to the contacts and identity API directly, using the token saved by 'contactctl login'.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseFormat(flagOutput); err != nil {
				return err
			}
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())

			cfg := contactapi.DefaultConfig().WithBaseURL(flagAPIURL).WithTimeout(flagTimeout)
			cfg.InsecureSkipVerify = flagInsecure
			if creds, err := loadCredentials(); err == nil {
				if creds.APIURL != "" && creds.APIURL != flagAPIURL {
					logger.Debug("saved token belongs to another API", "saved", creds.APIURL, "using", flagAPIURL)
				}
				cfg = cfg.WithToken(creds.Token)
			}
			api = contactapi.NewClient(cfg, logger)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagAPIURL, "api-url", defaultAPIURL(), "API base URL (or CONTACTBOOK_API_URL env)")
	root.PersistentFlags().BoolVar(&flagInsecure, "insecure", false, "Skip TLS certificate verification")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", contactapi.DefaultTimeout, "Per-request timeout")
	root.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format (table, json, yaml)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newContactsCmd(),
		newRolesCmd(),
		newUsersCmd(),
	)

	return root
}

// requireLogin fails early when no token is saved.
func requireLogin() error {
	if api.Token() == "" {
		return fmt.Errorf("not logged in; run 'contactctl login'")
	}
	return nil
}
