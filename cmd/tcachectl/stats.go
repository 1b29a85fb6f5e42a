package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/tcache"
	"github.com/joshuapare/tcache/tcdebug"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Dump a point-in-time snapshot of a fresh pool's free-list lengths and span activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger()
		pool := tcache.New()
		mon := tcdebug.NewMonitor(pool)
		mon.Attach()

		ptr, err := pool.Allocate(24)
		if err != nil {
			return err
		}
		defer pool.Deallocate(ptr, 24)

		tcdebug.Log(log, mon.Snapshot())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
