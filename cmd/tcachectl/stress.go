package main

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/joshuapare/tcache"
)

var (
	stressThreads int
	stressOps     int
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Run a mixed concurrent alloc/free workload and report the outstanding-allocation tally",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger()
		pool := tcache.New()

		var outstanding atomic.Int64
		var wg sync.WaitGroup
		wg.Add(stressThreads)

		for g := 0; g < stressThreads; g++ {
			go func(seed int) {
				defer wg.Done()

				var live [][]byte
				rng := uint32(seed*7919 + 104729)
				next := func() uint32 {
					rng ^= rng << 13
					rng ^= rng >> 17
					rng ^= rng << 5
					return rng
				}

				for i := 0; i < stressOps; i++ {
					if len(live) == 0 || next()%10 < 7 {
						size := 8 + int(next()%256)
						b, err := pool.AllocateBytes(size)
						if err != nil {
							log.Warn("allocate failed", "err", err)
							continue
						}
						live = append(live, b)
						outstanding.Add(1)
					} else {
						idx := int(next()) % len(live)
						b := live[idx]
						if err := pool.Deallocate(unsafe.Pointer(&b[0]), len(b)); err != nil {
							log.Warn("deallocate failed", "err", err)
							continue
						}
						outstanding.Add(-1)
						live[idx] = live[len(live)-1]
						live = live[:len(live)-1]
					}
				}

				for _, b := range live {
					_ = pool.Deallocate(unsafe.Pointer(&b[0]), len(b))
					outstanding.Add(-1)
				}
			}(g)
		}

		wg.Wait()
		log.Info("stress complete",
			"threads", stressThreads,
			"ops_per_thread", stressOps,
			"outstanding", outstanding.Load(),
		)
		return nil
	},
}

func init() {
	stressCmd.Flags().IntVar(&stressThreads, "threads", 8, "number of concurrent workers")
	stressCmd.Flags().IntVar(&stressOps, "ops", 2000, "operations per worker")
	rootCmd.AddCommand(stressCmd)
}
