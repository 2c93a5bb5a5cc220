package cmd

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "check SCHEMA_FILE...",
		Short:   "instantiate every standalone type of schema files and report failures",
		Example: "  structdoc check formats/*.yaml formats/legacy.ksy",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			errs := make([]error, len(args))
			var eg errgroup.Group
			for i, path := range args {
				eg.Go(func() error {
					errs[i] = a.renderer.ValidateSchema(path)
					return nil
				})
			}
			_ = eg.Wait()

			out := cmd.OutOrStdout()
			var result *multierror.Error
			for i, path := range args {
				if errs[i] != nil {
					fmt.Fprintf(out, "FAIL %s\n", path)
					result = multierror.Append(result, fmt.Errorf("%s: %w", path, errs[i]))
					continue
				}
				fmt.Fprintf(out, "ok   %s\n", path)
			}
			return result.ErrorOrNil()
		},
	}
}
