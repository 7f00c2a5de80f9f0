// Command benchmark drives the auction engine with synthetic
// participants and reports cycle throughput: how many cycles and trades
// it produces per second over a fixed test duration.
package main

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"vmxexchange/domain"
	"vmxexchange/engine"
)

const product domain.ProductId = 1

func main() {
	fmt.Println("=== auction engine benchmark ===")

	eng := engine.New(engine.DefaultConfig)

	numCPU := runtime.NumCPU()
	numWorkers := numCPU * 4
	testDuration := 5 * time.Second

	fmt.Printf("CPU cores: %d\n", numCPU)
	fmt.Printf("synthetic participants: %d\n", numWorkers)
	fmt.Printf("test duration: %v\n\n", testDuration)

	for w := 0; w < numWorkers; w++ {
		participant := domain.ParticipantId(w + 1)
		if err := eng.ApplyDirective(participant, engine.Join{}); err != nil {
			panic(err)
		}
		if err := eng.ApplyDirective(participant, engine.SubmitProgram{
			Product: product,
			Source:  quoteProgram(w),
		}); err != nil {
			panic(err)
		}
	}

	var cycles, trades, rejections atomic.Int64
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				result := eng.RunCycle()
				cycles.Add(1)
				trades.Add(int64(len(result.Trades)))
				rejections.Add(int64(len(result.Rejections)))
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	start := time.Now()
	go func() {
		for range ticker.C {
			elapsed := time.Since(start)
			fmt.Printf("[%.0fs] cycles: %d | trades: %d | rejections: %d\n",
				elapsed.Seconds(), cycles.Load(), trades.Load(), rejections.Load())
		}
	}()

	time.Sleep(testDuration)
	close(stop)
	<-done

	elapsed := time.Since(start)
	totalCycles := cycles.Load()
	totalTrades := trades.Load()

	fmt.Println("\n=== results ===")
	fmt.Printf("elapsed:         %v\n", elapsed)
	fmt.Printf("cycles:          %d\n", totalCycles)
	fmt.Printf("trades:          %d\n", totalTrades)
	fmt.Printf("cycles/sec:      %.1f\n", float64(totalCycles)/elapsed.Seconds())
	fmt.Printf("trades/sec:      %.1f\n", float64(totalTrades)/elapsed.Seconds())
	fmt.Printf("rejections:      %d\n", rejections.Load())
}

// quoteProgram returns an assembler source that quotes a single fixed
// side and price for worker w: even workers bid at 100, odd workers
// offer at 100, so every cycle's match step has something to clear.
func quoteProgram(w int) string {
	array := 9  // bid result array
	price := 100
	if w%2 == 1 {
		array = 10 // offer result array
	}
	return fmt.Sprintf(`
movimm r0 %d
movimm r1 %d
movimm r2 10
arrins r2 r0 r1
halt
`, array, price)
}
