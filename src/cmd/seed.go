package main

import (
	"fmt"

	"github.com/spf13/cobra"

	app "photozone/src/app"
)

func newSeedCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the default catalog seed as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := app.MockSeed()
			if err := app.WriteSeed(out, seed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d images to %s\n", len(seed.Images), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "catalog.yaml", "output file")
	return cmd
}
