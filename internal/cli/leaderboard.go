package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nocturna-app/nocturna/internal/domain"
)

func init() {
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(ranksCmd)

	leaderboardCmd.Flags().StringP("sector", "s", "", "Only agents whose main sector is this")
	leaderboardCmd.Flags().Bool("monthly", false, "Rank by XP earned this month")
	leaderboardCmd.Flags().String("vendor", "", "Rank by total investment at this vendor")
	leaderboardCmd.MarkFlagsMutuallyExclusive("monthly", "vendor", "sector")
}

// ─── leaderboard ────────────────────────────────────────────────────────────

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the all-time, monthly or vendor leaderboard",
	Args:  cobra.NoArgs,
	RunE:  runLeaderboard,
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	monthly, _ := cmd.Flags().GetBool("monthly")
	vendor, _ := cmd.Flags().GetString("vendor")
	sector, _ := cmd.Flags().GetString("sector")

	switch {
	case monthly:
		board, err := a.social.MonthlyLeaderboard(ctx, "")
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, board)
		}
		fmt.Fprintln(tw, "#\tAGENT\tRANK\tMONTHLY XP\tRECORDS")
		for i, e := range board {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", i+1, e.Codename, e.Rank, e.MonthlyXP, e.TransactionCount)
		}
	case vendor != "":
		board, err := a.social.VendorRanking(ctx, vendor, "")
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, board)
		}
		fmt.Fprintln(tw, "#\tAGENT\tRANK\tINVESTMENT\tVISITS")
		for i, e := range board {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", i+1, e.Codename, e.Rank, e.TotalInvestment, e.VisitCount)
		}
	default:
		board, err := a.social.Leaderboard(ctx, sector, "")
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, board)
		}
		fmt.Fprintln(tw, "#\tAGENT\tRANK\tXP\tCLASS\tSECTOR")
		for _, e := range board {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", e.Position, e.Codename, e.Rank, e.TotalXP, e.AgentClass, e.MainSector)
		}
	}
	return tw.Flush()
}

// ─── ranks ──────────────────────────────────────────────────────────────────

var ranksCmd = &cobra.Command{
	Use:   "ranks",
	Short: "Print the rank ladder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, domain.RankTiers())
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "THRESHOLD\tRANK")
		for _, t := range domain.RankTiers() {
			fmt.Fprintf(tw, "%d\t%s\n", t.Threshold, t.Title)
		}
		return tw.Flush()
	},
}
