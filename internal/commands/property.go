package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rentledger/rentledger/internal/model"
)

func newPropertyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "Manage the known property and entity set",
	}
	cmd.AddCommand(newPropertyAddCommand(a))
	cmd.AddCommand(newPropertyListCommand(a))
	cmd.AddCommand(newPropertyDeactivateCommand(a))
	return cmd
}

func newPropertyAddCommand(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "add <display-name>",
		Short: "Register a property or business entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := model.PropertyKind(kind)
			switch k {
			case model.KindRentalProperty, model.KindBusinessEntity:
			default:
				return fmt.Errorf("kind must be %q or %q", model.KindRentalProperty, model.KindBusinessEntity)
			}
			p := model.Property{
				ID:          uuid.NewString(),
				DisplayName: args[0],
				Kind:        k,
				Active:      true,
			}
			if err := a.properties.Add(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", p.DisplayName, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(model.KindRentalProperty), "rental_property or business_entity")
	return cmd
}

func newPropertyListCommand(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				props []model.Property
				err   error
			)
			if all {
				props, err = a.properties.List(cmd.Context())
			} else {
				props, err = a.properties.ListActive(cmd.Context())
			}
			if err != nil {
				return err
			}
			if len(props) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no properties registered")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKIND\tACTIVE")
			for _, p := range props {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", p.ID, p.DisplayName, p.Kind, p.Active)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include deactivated properties")
	return cmd
}

func newPropertyDeactivateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate <property-id>",
		Short: "Remove a property from matching; historical assignments keep resolving",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.properties.Deactivate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deactivated %s\n", args[0])
			return nil
		},
	}
	return cmd
}
