package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/client"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
	"github.com/spf13/cobra"
)

func newSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List library sections, to pick a library_section_id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plex := client.NewClient(config.GetConfig())
			defer plex.Close()

			sections, err := plex.ListLibrarySections(cmd.Context())
			if err != nil {
				return fmt.Errorf("list library sections: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tTYPE")
			for _, s := range sections {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Title, s.Type)
			}
			return w.Flush()
		},
	}
}
