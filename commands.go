// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/oobort/picpoll-lite/auth"
	"github.com/oobort/picpoll-lite/cliparse"
	"github.com/oobort/picpoll-lite/models"
)

func migrateCmd(cfg *cliparse.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// openApp creates the schema as part of connecting.
			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Database schema ready (%s)\n", a.cfg.DatabaseType)
			return nil
		},
	}
}

func statsCmd(cfg *cliparse.Config) *cobra.Command {
	var regions []string
	cmd := &cobra.Command{
		Use:   "stats <image_id>",
		Short: "Show raw and effective results for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.Results(cmd.Context(), itemID, regions)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&regions, "regions", nil, "Region codes to break out, e.g. US,JP")
	return cmd
}

func adjustCmd(cfg *cliparse.Config) *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "adjust <image_id> <option> <adj>",
		Short: "Set a count offset for one option (0 clears it)",
		Example: `  picpoll adjust 42 1 3 --region JP
  picpoll adjust -- 42 0 -5`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			option, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("option must be an integer: %q", args[1])
			}
			adj, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("adj must be an integer: %q", args[2])
			}

			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.SetAdjustment(cmd.Context(), itemID, region, option, adj); err != nil {
				return err
			}
			var regions []string
			if region != "" {
				regions = []string{region}
			}
			res, err := a.svc.Results(cmd.Context(), itemID, regions)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "Region code; blank adjusts the overall counts")
	return cmd
}

func itemCmd(cfg *cliparse.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage catalog items",
	}

	var item models.Item
	addCmd := &cobra.Command{
		Use:   "add <image_id>",
		Short: "Create or replace an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			item.ID = itemID

			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.SaveItem(cmd.Context(), item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved item %d: %s\n", item.ID, item.Title)
			return nil
		},
	}
	addCmd.Flags().StringVar(&item.Title, "title", "", "Item title (required)")
	addCmd.Flags().StringVar(&item.ImageURL, "url", "", "Image URL; items without one are not listed")
	addCmd.Flags().StringVar(&item.Excerpt, "excerpt", "", "Short description")
	addCmd.Flags().StringSliceVar(&item.Categories, "categories", nil, "Category slugs, e.g. travel,nature")

	deleteCmd := &cobra.Command{
		Use:   "delete <image_id>",
		Short: "Delete an item with all its votes and adjustments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.PurgeItem(cmd.Context(), itemID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted item %d\n", itemID)
			return nil
		},
	}

	cmd.AddCommand(addCmd, deleteCmd)
	return cmd
}

func tokenCmd(cfg *cliparse.Config) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue a voter session token",
		Long:  "Issue a signed session token for a logged-in voter. Needed when require_login is enabled.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := cfg.SessionSecret
			if secret == "" {
				secret = os.Getenv("SESSION_SECRET")
			}
			token, err := auth.IssueSession(args[0], secret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultSessionTTL, "Token lifetime")
	return cmd
}

func parseIDArg(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("image_id must be a positive integer: %q", raw)
	}
	return id, nil
}

func printResults(out io.Writer, res models.ItemResults) {
	added := "unknown"
	if !res.Item.CreatedAt.IsZero() {
		added = humanize.Time(res.Item.CreatedAt)
	}
	fmt.Fprintf(out, "Item %d: %s (added %s, %s vote rows)\n",
		res.Item.ID, res.Item.Title, added, humanize.Comma(int64(res.VoteRows)))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	printScope(tw, "Overall", res.Standings.Overall, res.RawCounts, res.Adjustments)

	codes := make([]string, 0, len(res.Regional))
	for code := range res.Regional {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		detail := res.Regional[code]
		printScope(tw, code, res.Standings.Regions[code], detail.RawCounts, detail.Adjustments)
	}
	tw.Flush()
}

func printScope(tw *tabwriter.Writer, name string, snap models.StatsSnapshot, raw []int, adj map[int]int) {
	fmt.Fprintf(tw, "\n%s\t%s votes\t\t\t\n", name, humanize.Comma(int64(snap.Total)))
	fmt.Fprintln(tw, "option\tcount\tpercent\traw\tadj")
	for i, label := range snap.Labels {
		rawCount := 0
		if i < len(raw) {
			rawCount = raw[i]
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%s\t%+d\n",
			label, humanize.Comma(int64(snap.Counts[i])), snap.Percent[i], humanize.Comma(int64(rawCount)), adj[i])
	}
}
