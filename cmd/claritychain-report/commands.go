package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"claritychain/internal/core"
	"claritychain/internal/services"

	"github.com/spf13/cobra"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func newTotalsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Print raised, spent and in-hand totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, ctx, cancel, err := open(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer s.Close()

			t, err := s.dash.Totals(ctx)
			if err != nil {
				return err
			}
			tw := newTabWriter(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Total raised\t%s\n", core.FormatMoney(t.TotalRaised))
			fmt.Fprintf(tw, "Total spent\t%s\n", core.FormatMoney(t.TotalSpent))
			fmt.Fprintf(tw, "Funds in hand\t%s\n", core.FormatMoney(t.FundsInHand))
			fmt.Fprintln(tw, "\t")
			for _, c := range t.SortedPerCategory() {
				fmt.Fprintf(tw, "%s\t%s\n", c.Category, core.FormatMoney(c.Amount))
			}
			return tw.Flush()
		},
	}
}

func newHallOfFameCmd(open opener) *cobra.Command {
	var category, project string
	var limit int
	cmd := &cobra.Command{
		Use:   "hall-of-fame",
		Short: "Rank the top donors",
		Long: `Ranks named donors by total confirmed giving. Anonymous gifts are never
listed. --category and --project narrow the ranking.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := services.HallOfFameQuery{ProjectID: project, Limit: limit}
			if category != "" {
				c, ok := core.ParseCategory(category)
				if !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				q.Category = c
			}

			s, ctx, cancel, err := open(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer s.Close()

			ranked, err := s.dash.HallOfFame(ctx, q)
			if err != nil {
				return err
			}
			if len(ranked) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No donors yet")
				return nil
			}
			tw := newTabWriter(cmd.OutOrStdout())
			fmt.Fprintln(tw, "#\tDONOR\tTOTAL\tGIFTS")
			for i, r := range ranked {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i+1, r.Donor.DisplayName, core.FormatMoney(r.Total), r.Donations)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "restrict to a category")
	cmd.Flags().StringVar(&project, "project", "", "restrict to a project id")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of donors (default from HALL_OF_FAME_LIMIT)")
	return cmd
}

func newCategoriesCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print per-category progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, ctx, cancel, err := open(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer s.Close()

			stats, err := s.dash.CategoryStats(ctx)
			if err != nil {
				return err
			}
			tw := newTabWriter(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CATEGORY\tPROJECTS\tRAISED\tTARGET\tPROGRESS\tDONORS")
			for _, c := range stats {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d%%\t%d\n", c.Category, c.ProjectCount,
					core.FormatMoney(c.Raised), core.FormatMoney(c.Target), c.Percentage, c.DonorCount)
			}
			return tw.Flush()
		},
	}
}

func newFeedCmd(open opener) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print recent activity, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, ctx, cancel, err := open(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer s.Close()

			events, lookup, err := s.dash.Feed(ctx, limit)
			if err != nil {
				return err
			}
			tw := newTabWriter(cmd.OutOrStdout())
			for _, e := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Kind, e.Describe(lookup))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of events (default from FEED_LIMIT)")
	return cmd
}

func newProgressCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <project-id>",
		Short: "Print funding and wishlist progress for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ctx, cancel, err := open(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer s.Close()

			p, err := s.dash.Project(ctx, args[0])
			if err != nil {
				return err
			}
			prog, err := core.ProjectProgress(p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			status := "in progress"
			if prog.Fulfilled {
				status = "funded"
			}
			fmt.Fprintf(out, "%s (%s)\n", p.Name, p.Category)
			fmt.Fprintf(out, "Raised %s of %s (%d%%, %s)\n",
				core.FormatMoney(prog.Raised), core.FormatMoney(prog.Target), prog.Percentage, status)
			if prog.Remaining.Cents > 0 {
				fmt.Fprintf(out, "Remaining %s\n", core.FormatMoney(prog.Remaining))
			}

			wishlist := core.ProjectWishlist(p)
			if len(wishlist) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			tw := newTabWriter(out)
			fmt.Fprintln(tw, "ITEM\tDONATED\tPROGRESS")
			for _, w := range wishlist {
				fmt.Fprintf(tw, "%s\t%s/%s\t%d%%\n", w.Item.Name,
					strconv.Itoa(w.Item.QuantityDonated), strconv.Itoa(w.Item.QuantityNeeded), w.Percentage)
			}
			return tw.Flush()
		},
	}
}
