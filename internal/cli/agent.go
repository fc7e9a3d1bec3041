package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ─── Agent CLI ──────────────────────────────────────────────────────────────
// Agents are created on first registration; a codename maps to exactly one
// agent, so registering an existing codename returns that agent.

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.AddCommand(agentRegisterCmd)
	agentCmd.AddCommand(agentShowCmd)
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Register and inspect agents",
}

// ─── agent register ─────────────────────────────────────────────────────────

var agentRegisterCmd = &cobra.Command{
	Use:   "register CODENAME",
	Short: "Register an agent (2-12 characters, stored upper-case)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentRegister,
}

func runAgentRegister(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	agent, created, err := a.transactions.Register(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, agent)
	}
	if created {
		fmt.Fprintf(out, "✅ Agent %s registered\n", agent.Codename)
	} else {
		fmt.Fprintf(out, "Agent %s already registered\n", agent.Codename)
	}
	fmt.Fprintf(out, "   ID: %s\n", agent.ID)
	return nil
}

// ─── agent show ─────────────────────────────────────────────────────────────

var agentShowCmd = &cobra.Command{
	Use:   "show AGENT",
	Short: "Show rank progress, class and badge summary",
	Long:  `Show an agent's progression. AGENT is an agent ID or a codename.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentShow,
}

func runAgentShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	agent, err := a.resolveAgent(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	snap, err := a.progress.Snapshot(cmd.Context(), agent.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, snap)
	}

	rp := snap.RankProgress
	fmt.Fprintf(out, "%s  [%s]\n", snap.Agent.Codename, snap.Agent.ID)
	fmt.Fprintf(out, "  Rank:    %s (%d XP)\n", rp.Current.Title, snap.Agent.TotalXP)
	if rp.Next != nil {
		fmt.Fprintf(out, "  Next:    %s in %d XP (%d%%)\n", rp.Next.Title, rp.RemainingXP, rp.ProgressPercent)
	} else {
		fmt.Fprintln(out, "  Next:    top rank reached")
	}
	fmt.Fprintf(out, "  Class:   %s %s (%s)\n", snap.Class.Icon, snap.Class.Label, snap.Agent.AgentClass)
	fmt.Fprintf(out, "  Sector:  %s\n", snap.Agent.MainSector)
	fmt.Fprintf(out, "  Records: %d\n", snap.TransactionCount)
	fmt.Fprintf(out, "  Badges:  %d/%d unlocked\n", snap.BadgeSummary.Unlocked, snap.BadgeSummary.Total)
	return nil
}
