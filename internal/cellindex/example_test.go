package cellindex_test

import (
	"fmt"

	"github.com/banshee-data/cellindex/internal/cellindex"
)

// ExampleBuild finds the neighbors of three point particles near the
// periodic edge of a 10×10 domain.
func ExampleBuild() {
	particles := []cellindex.Particle{
		{ID: 0, X: 0.2, Y: 5},
		{ID: 1, X: 9.9, Y: 5},
		{ID: 2, X: 5, Y: 5},
	}
	cfg := cellindex.Config{DomainSize: 10, Cutoff: 1, Boundary: cellindex.Periodic}

	idx, err := cellindex.Build(particles, cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("M:", idx.GridSize())
	for id := 0; id < idx.Len(); id++ {
		fmt.Println(id, idx.NeighborsOf(id))
	}
	// Output:
	// M: 10
	// 0 [1]
	// 1 [0]
	// 2 []
}

// ExampleDeriveGridSize shows the cell count for particles of radius 0.25.
func ExampleDeriveGridSize() {
	fmt.Println(cellindex.DeriveGridSize(20, 5, 0.25))
	// Output: 3
}

// ExampleIndex_AllPairs lists each neighbor pair once.
func ExampleIndex_AllPairs() {
	particles := []cellindex.Particle{
		{ID: 0, X: 1, Y: 1},
		{ID: 1, X: 2, Y: 2},
		{ID: 2, X: 2.5, Y: 1.5},
		{ID: 3, X: 8, Y: 8},
	}
	idx, _ := cellindex.Build(particles, cellindex.Config{DomainSize: 10, Cutoff: 2, Boundary: cellindex.Wall})
	for a, b := range idx.AllPairs() {
		fmt.Printf("(%d,%d)\n", a, b)
	}
	// Output:
	// (0,1)
	// (0,2)
	// (1,2)
}
