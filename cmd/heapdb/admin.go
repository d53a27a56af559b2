package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/bietkhonhungvandi212/heapdb/internal/wal"
)

func init() {
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show tables and buffer pool counters",
			Args:  cobra.NoArgs,
			RunE:  statsRun,
		},
		&cobra.Command{
			Use:   "log",
			Short: "Dump the write-ahead log",
			Args:  cobra.NoArgs,
			RunE:  logRun,
		},
		&cobra.Command{
			Use:   "checkpoint",
			Short: "Write back dirty pages and append a checkpoint record",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return db.Checkpoint()
			},
		},
	)
}

func statsRun(cmd *cobra.Command, args []string) error {
	st, err := db.Stats()
	if err != nil {
		return err
	}

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"id", "table", "tuple size", "pages"})
	for _, t := range st.Tables {
		tw.Append([]string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.Name,
			strconv.Itoa(t.TupleSize),
			strconv.Itoa(t.Pages),
		})
	}
	tw.Render()

	p := st.Pool
	tw = tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"counter", "value"})
	for _, row := range [][2]string{
		{"capacity", strconv.Itoa(p.Capacity)},
		{"resident", strconv.Itoa(p.Resident)},
		{"dirty", strconv.Itoa(p.Dirty)},
		{"hits", strconv.FormatUint(p.Hits, 10)},
		{"misses", strconv.FormatUint(p.Misses, 10)},
		{"evictions", strconv.FormatUint(p.Evictions, 10)},
		{"lock timeouts", strconv.FormatUint(p.LockTimeouts, 10)},
		{"deadlocks", strconv.FormatUint(p.Deadlocks, 10)},
		{"log records", strconv.Itoa(st.LogRecords)},
	} {
		tw.Append(row[:])
	}
	tw.Render()
	return nil
}

func logRun(cmd *cobra.Command, args []string) error {
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"lsn", "type", "tid", "page", "before", "after"})
	err := db.Log(func(r wal.Record) error {
		pg := ""
		if r.Type == wal.RecordUpdate {
			pg = r.PageID.String()
		}
		tw.Append([]string{
			strconv.FormatUint(r.LSN, 10),
			r.Type.String(),
			fmt.Sprint(r.TID),
			pg,
			strconv.Itoa(len(r.Before)),
			strconv.Itoa(len(r.After)),
		})
		return nil
	})
	if err != nil {
		return err
	}
	tw.Render()
	return nil
}
