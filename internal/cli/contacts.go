package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/contactbook/pkg/model"
)

func newContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"contact", "c"},
		Short:   "List and edit contacts",
	}
	cmd.AddCommand(
		newContactsListCmd(),
		newContactsShowCmd(),
		newContactsAddCmd(),
		newContactsUpdateCmd(),
		newContactsDeleteCmd(),
	)
	return cmd
}

func newContactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all contacts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, err := api.ListContacts(cmd.Context())
			if err != nil {
				return fmt.Errorf("list contacts: %w", err)
			}
			if contacts == nil {
				contacts = []model.Contact{}
			}
			return emit(cmd, contacts, func(w io.Writer) {
				if len(contacts) == 0 {
					fmt.Fprintln(w, "No contacts found.")
					return
				}
				fmt.Fprintln(w, "ID\tNAME\tPHONE\tADDRESS")
				for _, c := range contacts {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.FullName(), c.TelephoneNumber, c.ResidenceAddress)
				}
			})
		},
	}
}

func newContactsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := api.GetContact(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get contact %d: %w", id, err)
			}
			return emit(cmd, c, func(w io.Writer) {
				fmt.Fprintf(w, "ID:\t%d\n", c.ID)
				fmt.Fprintf(w, "Surname:\t%s\n", c.Surname)
				fmt.Fprintf(w, "Name:\t%s\n", c.Name)
				fmt.Fprintf(w, "Father name:\t%s\n", c.FatherName)
				fmt.Fprintf(w, "Phone:\t%s\n", c.TelephoneNumber)
				fmt.Fprintf(w, "Address:\t%s\n", c.ResidenceAddress)
				fmt.Fprintf(w, "Description:\t%s\n", c.Description)
			})
		},
	}
}

// contactFlags binds one flag per contact field.
func contactFlags(cmd *cobra.Command, c *model.Contact) {
	f := cmd.Flags()
	f.StringVar(&c.Surname, "surname", "", "Surname")
	f.StringVar(&c.Name, "name", "", "Given name")
	f.StringVar(&c.FatherName, "father-name", "", "Father name")
	f.StringVar(&c.TelephoneNumber, "phone", "", "Telephone number")
	f.StringVar(&c.ResidenceAddress, "address", "", "Residence address")
	f.StringVar(&c.Description, "description", "", "Description")
}

func validContact(c *model.Contact) error {
	c.Normalize()
	if errs := c.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid contact: %s", joinFieldErrors(errs))
	}
	return nil
}

func newContactsAddCmd() *cobra.Command {
	var c model.Contact
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			if err := validContact(&c); err != nil {
				return err
			}
			if err := api.AddContact(cmd.Context(), c); err != nil {
				return fmt.Errorf("add contact: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", c.FullName())
			return nil
		},
	}
	contactFlags(cmd, &c)
	return cmd
}

func newContactsUpdateCmd() *cobra.Command {
	var patch model.Contact
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a contact (admin)",
		Long:  "Change a contact. Fields without a flag keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := api.GetContact(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get contact %d: %w", id, err)
			}

			merged := *current
			f := cmd.Flags()
			for flag, dst := range map[string]*string{
				"surname":     &merged.Surname,
				"name":        &merged.Name,
				"father-name": &merged.FatherName,
				"phone":       &merged.TelephoneNumber,
				"address":     &merged.ResidenceAddress,
				"description": &merged.Description,
			} {
				if f.Changed(flag) {
					*dst, _ = f.GetString(flag)
				}
			}
			merged.ID = id
			if err := validContact(&merged); err != nil {
				return err
			}

			if err := api.UpdateContact(cmd.Context(), id, merged); err != nil {
				return fmt.Errorf("update contact %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated contact %d\n", id)
			return nil
		},
	}
	contactFlags(cmd, &patch)
	return cmd
}

func newContactsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a contact (admin)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := api.DeleteContact(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete contact %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted contact %d\n", id)
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid contact id %q", s)
	}
	return id, nil
}

func joinFieldErrors(errs []model.FieldError) string {
	s := ""
	for i, e := range errs {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s
}
