package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/bietkhonhungvandi212/heapdb/internal/storage/page"
)

func init() {
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "insert <table> <value>...",
			Short: "Insert values into a table in one transaction",
			Args:  cobra.MinimumNArgs(2),
			RunE:  insertRun,
		},
		&cobra.Command{
			Use:   "scan <table>",
			Short: "Print every tuple of a table",
			Args:  cobra.ExactArgs(1),
			RunE:  scanRun,
		},
	)
}

func insertRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tid := db.Begin()

	for _, v := range args[1:] {
		rid, err := db.Insert(ctx, tid, args[0], []byte(v))
		if err != nil {
			db.Abort(tid)
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", rid, v)
	}
	return db.Commit(tid)
}

func scanRun(cmd *cobra.Command, args []string) error {
	tid := db.Begin()

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"record", "value"})
	n := 0
	err := db.Scan(cmd.Context(), tid, args[0], func(t page.Tuple) error {
		tw.Append([]string{t.RecordID.String(), string(bytes.TrimRight(t.Data, "\x00"))})
		n++
		return nil
	})
	if err != nil {
		db.Abort(tid)
		return err
	}
	if err := db.Commit(tid); err != nil {
		return err
	}

	tw.SetFooter([]string{"", fmt.Sprintf("%d rows", n)})
	tw.Render()
	return nil
}
