// Command profile runs the auction engine against synthetic load under
// the CPU profiler, producing cpu.prof for "go tool pprof".
package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"vmxexchange/domain"
	"vmxexchange/engine"
)

const product domain.ProductId = 1

func main() {
	cpuFile, err := os.Create("cpu.prof")
	if err != nil {
		panic(err)
	}
	defer cpuFile.Close()

	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		panic(err)
	}
	defer pprof.StopCPUProfile()

	fmt.Println("=== profiling auction engine cycles ===")
	fmt.Println("writing CPU profile to cpu.prof")

	eng := engine.New(engine.DefaultConfig)
	numParticipants := 200

	for w := 0; w < numParticipants; w++ {
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

	duration := 10 * time.Second
	start := time.Now()
	var cycles, trades int
	for time.Since(start) < duration {
		result := eng.RunCycle()
		cycles++
		trades += len(result.Trades)
	}

	fmt.Printf("\ncycles: %d\n", cycles)
	fmt.Printf("trades: %d\n", trades)
	fmt.Printf("cycles/sec: %.1f\n", float64(cycles)/time.Since(start).Seconds())

	fmt.Println("\nanalyze with:")
	fmt.Println("  go tool pprof -http=:8080 cpu.prof")
}

// quoteProgram spreads participants over a small range of prices on
// alternating sides so matching has real pro-rata work to do at several
// levels instead of a single degenerate price.
func quoteProgram(w int) string {
	array := 9
	if w%2 == 1 {
		array = 10
	}
	price := 95 + w%10
	return fmt.Sprintf(`
movimm r0 %d
movimm r1 %d
movimm r2 10
arrins r2 r0 r1
halt
`, array, price)
}
