package catalog

import (
	"io"

	"techdocs/pkg/printer"
	"techdocs/router"

	"github.com/spf13/cobra"
)

// Command builds the "services" command group.
func Command(p *printer.Printer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:         "services",
		Short:       "Browse the systems documents can be filed under",
		Annotations: map[string]string{router.RouteAnnotation: router.ServicesPath},
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", printer.FormatTable, "output format: table, json or yaml")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List known services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := printer.ValidFormat(output); err != nil {
				return p.Fail("Invalid output format", err)
			}
			services := List()
			return p.Render(output, services, func(w io.Writer) {
				printer.Row(w, "ID", "NAME")
				for _, s := range services {
					printer.Row(w, s.ID, s.Name)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := printer.ValidFormat(output); err != nil {
				return p.Fail("Invalid output format", err)
			}
			svc, err := Get(args[0])
			if err != nil {
				return p.Fail("Unknown service", err, "Run: techdocs services list")
			}
			return p.Render(output, svc, func(w io.Writer) {
				printer.Row(w, "ID", svc.ID)
				printer.Row(w, "NAME", svc.Name)
			})
		},
	})
	return cmd
}
