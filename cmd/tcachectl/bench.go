package main

import (
	"time"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/joshuapare/tcache"
)

var (
	benchSize int
	benchIter int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time a tight allocate/deallocate loop and report ns/op",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger()
		pool := tcache.New()

		// Warm the relevant size class so the timed loop measures the
		// thread-cache fast path, not the one-time span/batch refill.
		warm, err := pool.Allocate(benchSize)
		if err != nil {
			return err
		}
		if err := pool.Deallocate(warm, benchSize); err != nil {
			return err
		}

		start := time.Now()
		for i := 0; i < benchIter; i++ {
			ptr, err := pool.Allocate(benchSize)
			if err != nil {
				return err
			}
			*(*byte)(unsafe.Pointer(ptr)) = byte(i)
			if err := pool.Deallocate(ptr, benchSize); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)

		nsPerOp := float64(elapsed.Nanoseconds()) / float64(benchIter)
		log.Info("bench complete",
			"size", benchSize,
			"iterations", benchIter,
			"total", elapsed.String(),
			"ns_per_op", nsPerOp,
		)
		return nil
	},
}

func init() {
	benchCmd.Flags().IntVar(&benchSize, "size", 24, "block size in bytes")
	benchCmd.Flags().IntVar(&benchIter, "iterations", 200000, "allocate/deallocate pairs to time")
	rootCmd.AddCommand(benchCmd)
}
