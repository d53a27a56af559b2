package main

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

var (
	benchWorkers = 4
	benchOps     = 100
	benchTable   = "kv"
)

func init() {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run concurrent insert transactions against a table",
		Args:  cobra.NoArgs,
		RunE:  benchRun,
	}
	fs := cmd.Flags()
	fs.IntVar(&benchWorkers, "workers", benchWorkers, "number of concurrent workers")
	fs.IntVar(&benchOps, "ops", benchOps, "transactions per worker")
	fs.StringVar(&benchTable, "table", benchTable, "`table` to insert into")
	rootCmd.AddCommand(cmd)
}

// benchRun gives up on a transaction as soon as the pool signals an abort;
// any other error stops every worker.
func benchRun(cmd *cobra.Command, args []string) error {
	var committed, aborted atomic.Int64

	start := time.Now()
	g, ctx := errgroup.WithContext(cmd.Context())
	for w := 0; w < benchWorkers; w++ {
		g.Go(func() error {
			for i := 0; i < benchOps; i++ {
				tid := db.Begin()
				_, err := db.Insert(ctx, tid, benchTable, []byte(fmt.Sprintf("w%d-%d", w, i)))
				if util.IsAborted(err) {
					aborted.Add(1)
					if err := db.Abort(tid); err != nil {
						return err
					}
					continue
				}
				if err != nil {
					db.Abort(tid)
					return err
				}
				if err := db.Commit(tid); err != nil {
					return err
				}
				committed.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	elapsed := time.Since(start)

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"workers", "committed", "aborted", "elapsed", "tx/s"})
	tw.Append([]string{
		strconv.Itoa(benchWorkers),
		strconv.FormatInt(committed.Load(), 10),
		strconv.FormatInt(aborted.Load(), 10),
		elapsed.Round(time.Millisecond).String(),
		strconv.FormatFloat(float64(committed.Load())/elapsed.Seconds(), 'f', 1, 64),
	})
	tw.Render()
	return err
}
