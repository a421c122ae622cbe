package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/me/contactbook/pkg/model"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer user accounts (admin)",
	}
	cmd.AddCommand(
		newUsersListCmd(),
		newUsersRegisterCmd(),
		newUsersRemoveCmd(),
	)
	return cmd
}

func newUsersListCmd() *cobra.Command {
	var admins bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users holding the User role",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			list, what := api.ListUsers, "list users"
			if admins {
				list, what = api.ListAdmins, "list admins"
			}
			names, err := list(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", what, err)
			}
			if names == nil {
				names = []string{}
			}
			return emit(cmd, names, func(w io.Writer) {
				if len(names) == 0 {
					fmt.Fprintln(w, "No users found.")
					return
				}
				for _, n := range names {
					fmt.Fprintln(w, n)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&admins, "admins", false, "List administrators instead")
	return cmd
}

func newUsersRegisterCmd() *cobra.Command {
	var reg model.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account without signing in as it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			reg.ConfirmPassword = reg.Password
			if errs := reg.Validate(); len(errs) > 0 {
				return fmt.Errorf("invalid account: %s", joinFieldErrors(errs))
			}
			if err := api.AdminRegister(cmd.Context(), reg); err != nil {
				return fmt.Errorf("register %s: %w", reg.LoginProp, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s created\n", reg.LoginProp)
			return nil
		},
	}
	cmd.Flags().StringVarP(&reg.LoginProp, "user", "u", "", "Login of the new account")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "Password of the new account")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <user>",
		Aliases: []string{"rm"},
		Short:   "Delete a user account",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			res, err := api.RemoveUser(cmd.Context(), args[0])
			return reportResult(cmd, res, err, "remove user", model.ResultUserRemoved)
		},
	}
}
