package main

import (
	"fmt"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/joshuapare/tcache"
)

var (
	allocSize  int
	allocCount int
)

var allocCmd = &cobra.Command{
	Use:   "alloc",
	Short: "Allocate and free a run of same-size blocks, reporting how many were allocated and freed",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger()
		pool := tcache.New()

		ptrs := make([]unsafe.Pointer, 0, allocCount)
		for i := 0; i < allocCount; i++ {
			ptr, err := pool.Allocate(allocSize)
			if err != nil {
				return fmt.Errorf("allocate %d of %d: %w", i, allocCount, err)
			}
			ptrs = append(ptrs, ptr)
			log.Debug("allocated", "index", i, "size", allocSize)
		}

		log.Info("batch complete", "count", len(ptrs), "size", allocSize)

		for i, ptr := range ptrs {
			if err := pool.Deallocate(ptr, allocSize); err != nil {
				return fmt.Errorf("deallocate %d: %w", i, err)
			}
		}
		log.Info("freed all", "count", len(ptrs))
		return nil
	},
}

func init() {
	allocCmd.Flags().IntVar(&allocSize, "size", 24, "block size in bytes")
	allocCmd.Flags().IntVar(&allocCount, "count", 1, "number of blocks to allocate")
	rootCmd.AddCommand(allocCmd)
}
