package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/contactbook/pkg/model"
)

func newRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Inspect and administer roles",
	}
	cmd.AddCommand(
		newRolesMineCmd(),
		newRolesCreateCmd(),
		newRolesAssignCmd(),
		newRolesRevokeCmd(),
	)
	return cmd
}

func newRolesMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List the roles held by the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			roles, err := api.CurrentRoles(cmd.Context())
			if err != nil {
				return fmt.Errorf("current roles: %w", err)
			}
			if roles == nil {
				roles = []string{}
			}
			return emit(cmd, roles, func(w io.Writer) {
				if len(roles) == 0 {
					fmt.Fprintln(w, "Role not defined")
					return
				}
				fmt.Fprintln(w, strings.Join(roles, ", "))
			})
		},
	}
}

func newRolesCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <role>",
		Short: "Create a role (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			res, err := api.CreateRole(cmd.Context(), args[0])
			return reportResult(cmd, res, err, "create role", model.ResultRoleCreated)
		},
	}
}

func newRolesAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <role> <user>",
		Short: "Give a role to a user (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			res, err := api.AssignRole(cmd.Context(), args[0], args[1])
			return reportResult(cmd, res, err, "assign role", model.ResultRoleAssigned)
		},
	}
}

func newRolesRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <role> <user>",
		Short: "Take a role from a user (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			res, err := api.RevokeRole(cmd.Context(), args[0], args[1])
			return reportResult(cmd, res, err, "revoke role", model.ResultRoleRevoked)
		},
	}
}

// reportResult prints the codes of an administration call and fails unless
// success is among them.
func reportResult(cmd *cobra.Command, res model.Result, err error, what string, success model.ResultCode) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if res.Codes == nil {
		res.Codes = []model.ResultCode{}
	}
	if err := emit(cmd, res, func(w io.Writer) {
		codes := make([]string, len(res.Codes))
		for i, c := range res.Codes {
			codes[i] = string(c)
		}
		fmt.Fprintf(w, "Result:\t%s\n", fallback(strings.Join(codes, ", "), "(unrecognized)"))
		if res.Message != "" {
			fmt.Fprintf(w, "Message:\t%s\n", res.Message)
		}
	}); err != nil {
		return err
	}
	if !res.Has(success) {
		return fmt.Errorf("%s: not done", what)
	}
	return nil
}
