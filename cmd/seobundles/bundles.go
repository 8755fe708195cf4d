package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanizio/seobundles/internal/bundle"
)

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Build every Global and content bundle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := bundle.New(current.deps)
			globals := reg.CreateAllGlobalBundles(cmd.Context())
			content := reg.CreateAllContentBundles(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%d global bundle(s), %d content bundle(s)\n", globals, content)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		allSites bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored content bundles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bundles := bundle.New(current.deps).ContentBundles(cmd.Context(), allSites)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(bundles)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tSOURCE\tHANDLE\tSITE\tVERSION\tUPDATED")
			for _, b := range bundles {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\t%s\n",
					b.SourceBundleType, b.SourceID, b.SourceHandle, b.SourceSiteID,
					b.BundleVersion, b.SourceDateUpdated.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&allSites, "all-sites", false, "List every site's bundle, not one per source")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <id|handle> <site>",
		Short: "Resolve one bundle, building it when missing",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := bundle.ParseKind(args[0])
			if err != nil {
				return err
			}
			siteID, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("site: %w", err)
			}

			reg := bundle.New(current.deps)
			var b *bundle.Bundle
			if id, perr := strconv.ParseInt(args[1], 10, 64); perr == nil {
				b, err = reg.BundleBySourceID(cmd.Context(), kind, id, siteID)
			} else {
				b, err = reg.BundleBySourceHandle(cmd.Context(), kind, args[1], siteID)
			}
			if err != nil {
				return err
			}
			if b == nil {
				return errors.New("no bundle for that source on that site")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(b)
		},
	}
}
