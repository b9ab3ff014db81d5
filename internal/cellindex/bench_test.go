package cellindex

import (
	"fmt"
	"testing"
)

// BenchmarkBuild compares the cell list against the O(N²) baseline at the
// density of the reference run (N=5000 in L=50 with rc=3).
func BenchmarkBuild(b *testing.B) {
	for _, n := range []int{500, 1000, 5000} {
		l := 50 * float64(n) / 5000
		ps := randomParticles(1, n, l, 0)
		cfg := Config{DomainSize: l, Cutoff: 3}

		b.Run(fmt.Sprintf("cell/N=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := Build(ps, cfg); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(fmt.Sprintf("cell-parallel/N=%d", n), func(b *testing.B) {
			pcfg := cfg
			pcfg.Workers = 4
			for i := 0; i < b.N; i++ {
				if _, err := Build(ps, pcfg); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(fmt.Sprintf("brute/N=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := BruteForce(ps, cfg); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
