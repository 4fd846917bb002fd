package vm

import (
	"math"

	"github.com/kolkov/usaol/internal/compiler"
)

// generate fills table from the generator arguments that follow the size.
func generate(gen compiler.Gen, table []float32, args []float32) {
	switch gen {
	case compiler.GenEmpty:
		clear(table)

	case compiler.GenData:
		n := copy(table, args)
		clear(table[n:])

	case compiler.GenHarm:
		// Sum of harmonics: args[k] is the amplitude of harmonic k+1.
		size := float64(len(table))
		for i := range table {
			var sum float64
			phase := 2 * math.Pi * float64(i) / size
			for k, amp := range args {
				sum += float64(amp) * math.Sin(float64(k+1)*phase)
			}
			table[i] = float32(sum)
		}

	case compiler.GenLineseg:
		lineseg(table, args)
	}
}

// lineseg interpolates between (x, y) breakpoints. Positions before the
// first and after the last breakpoint hold the nearest y.
func lineseg(table []float32, points []float32) {
	n := len(points) / 2
	if n == 0 {
		return
	}
	x := func(i int) float64 { return float64(points[2*i]) }
	y := func(i int) float64 { return float64(points[2*i+1]) }

	seg := 0
	for i := range table {
		pos := float64(i)
		for seg < n-1 && pos > x(seg+1) {
			seg++
		}
		switch {
		case pos <= x(0):
			table[i] = float32(y(0))
		case seg == n-1:
			table[i] = float32(y(n - 1))
		default:
			x0, x1 := x(seg), x(seg+1)
			if x1 == x0 {
				table[i] = float32(y(seg + 1))
				continue
			}
			t := (pos - x0) / (x1 - x0)
			table[i] = float32(y(seg) + t*(y(seg+1)-y(seg)))
		}
	}
}
