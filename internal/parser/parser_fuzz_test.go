package parser_test

import (
	"testing"

	"github.com/kolkov/usaol/internal/parser"
)

// FuzzParser tests the parser with random inputs to find crashes.
func FuzzParser(f *testing.F) {
	seeds := []string{
		"",
		"global { srate 44100; krate 100; }",
		"instr a() { }",
		"instr a(p) { ksig k; asig y; y = k * p; output(y); }",
		"instr a() { ivar x[4]; x[2] = !x[1] ? 1 : 0; }",
		"instr a() { ksig k; while (k < 10) { k = k + 1; } if (k) { turnoff; } }",
		"kopcode f(ksig x) { return(x); }",
		"template t(a) { output(a); }",
		"instr a() { table t(harm, 8, 1); }",
		"instr a( { ",
		"global { srate",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, src string) {
		orch, err := parser.Parse(src)
		if err == nil && orch == nil {
			t.Error("nil orchestra without error")
		}
	})
}
