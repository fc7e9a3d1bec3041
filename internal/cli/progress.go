package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(questsCmd)
	rootCmd.AddCommand(badgesCmd)
}

// ─── quests ─────────────────────────────────────────────────────────────────

var questsCmd = &cobra.Command{
	Use:   "quests AGENT",
	Short: "Show today's and this week's quest progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuests,
}

func runQuests(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	agent, err := a.resolveAgent(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	quests, err := a.progress.Quests(cmd.Context(), agent.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, quests)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tTYPE\tQUEST\tPROGRESS")
	for _, q := range quests {
		mark := " "
		if q.Completed {
			mark = "✓"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%d/%d (%d%%)\n",
			mark, q.Quest.Type, q.Quest.Icon, q.Quest.Title, q.Current, q.Target, q.ProgressPercent)
	}
	return tw.Flush()
}

// ─── badges ─────────────────────────────────────────────────────────────────

var badgesCmd = &cobra.Command{
	Use:   "badges AGENT",
	Short: "Show badge unlocks",
	Args:  cobra.ExactArgs(1),
	RunE:  runBadges,
}

func runBadges(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	agent, err := a.resolveAgent(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	badges, err := a.progress.Badges(cmd.Context(), agent.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, badges)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tBADGE\tRARITY\tDESCRIPTION")
	unlocked := 0
	for _, b := range badges {
		mark := "🔒"
		if b.Unlocked {
			mark = b.Icon
			unlocked++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, b.Title, b.Rarity, b.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d/%d unlocked\n", unlocked, len(badges))
	return nil
}
