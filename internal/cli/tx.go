package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nocturna-app/nocturna/internal/domain"
)

func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.AddCommand(txRecordCmd)
	txCmd.AddCommand(txListCmd)

	f := txRecordCmd.Flags()
	f.StringP("date", "d", "", "Transaction date YYYY-MM-DD (default today)")
	f.StringP("sector", "s", string(domain.SectorOther), "Sector")
	f.StringP("vendor", "v", "", "Vendor name")
	f.String("alias", "", "Cast alias")
	f.Int64P("investment", "i", 0, "Amount spent")
	f.StringP("grade", "g", string(domain.GradeC), "Grade F through SSS")
	f.StringSliceP("tag", "t", nil, "Tag (repeatable)")
	f.String("note", "", "Private note")
	f.Bool("public", false, "Show in the public feed")
	_ = txRecordCmd.MarkFlagRequired("investment")
}

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Record and list transactions",
}

// ─── tx record ──────────────────────────────────────────────────────────────

var txRecordCmd = &cobra.Command{
	Use:   "record AGENT",
	Short: "Record a transaction and award XP",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxRecord,
}

func runTxRecord(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	agent, err := a.resolveAgent(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	f := cmd.Flags()
	in := domain.TransactionInput{}
	in.TransactionDate, _ = f.GetString("date")
	sector, _ := f.GetString("sector")
	in.Sector = domain.Sector(strings.ToUpper(sector))
	in.Vendor, _ = f.GetString("vendor")
	in.CastAlias, _ = f.GetString("alias")
	in.Investment, _ = f.GetInt64("investment")
	grade, _ := f.GetString("grade")
	in.Grade = domain.Grade(strings.ToUpper(grade))
	in.Tags, _ = f.GetStringSlice("tag")
	in.PrivateNote, _ = f.GetString("note")
	in.IsPublic, _ = f.GetBool("public")
	if in.TransactionDate == "" {
		loc, err := a.cfg.Location()
		if err != nil {
			return err
		}
		in.TransactionDate = time.Now().In(loc).Format(domain.DateLayout)
	}

	res, err := a.transactions.Record(cmd.Context(), agent.ID, in)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, res)
	}
	fmt.Fprintf(out, "+%d XP  (total %d)\n", res.Transaction.XPEarned, res.Agent.TotalXP)
	if res.LeveledUp {
		fmt.Fprintf(out, "🎉 RANK UP: %s → %s\n", res.PreviousRank, res.Agent.Rank)
	}
	fmt.Fprintf(out, "   Class: %s  Main sector: %s\n", res.Agent.AgentClass, res.Agent.MainSector)
	return nil
}

// ─── tx list ────────────────────────────────────────────────────────────────

var txListCmd = &cobra.Command{
	Use:   "list AGENT",
	Short: "List an agent's transactions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxList,
}

func runTxList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	agent, err := a.resolveAgent(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	txs, err := a.transactions.History(cmd.Context(), agent.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, txs)
	}
	if len(txs) == 0 {
		fmt.Fprintln(out, "No transactions recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSECTOR\tVENDOR\tINVESTMENT\tGRADE\tXP")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\n",
			tx.TransactionDate, tx.Sector, tx.Vendor, tx.Investment, tx.Grade, tx.XPEarned)
	}
	return tw.Flush()
}
