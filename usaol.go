package usaol

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"

	"github.com/kolkov/usaol/internal/ast"
	"github.com/kolkov/usaol/internal/compiler"
	"github.com/kolkov/usaol/internal/parser"
	"github.com/kolkov/usaol/internal/semantic"
	"github.com/kolkov/usaol/internal/vm"
)

// Version is the usaol version string.
const Version = "0.1.0"

// tracer traces with key 'usaol'.
func tracer() tracing.Trace {
	return tracing.Select("usaol")
}

// Compile parses, checks and generates every instrument of an orchestra.
//
// Instruments are compiled independently: a failing instrument does not
// stop the others from being checked, and all errors are returned
// together as an [ErrorList]. No orchestra is returned if any unit
// failed.
//
// Example:
//
//	orch, err := usaol.Compile(`
//	    instr beep(freq) {
//	        asig ph;
//	        ph = ph + freq / s_rate;
//	        output(sin(2 * 3.14159 * ph) * 0.2);
//	    }`)
func Compile(source string) (*Orchestra, error) {
	tree, err := parser.Parse(source)
	if err != nil {
		return nil, convertParseError(err)
	}

	var errs ErrorList
	sections, err := semantic.Partition(tree)
	errs.add(err)
	globals, err := semantic.ResolveGlobals(sections.Global)
	errs.add(err)
	sem := semantic.NewTable()
	global, err := semantic.CheckGlobal(sections.Global, sem)
	errs.add(err)
	if len(errs) > 0 {
		// Every unit depends on the global section.
		return nil, errs
	}
	tracer().Debugf("globals: srate=%d krate=%d outchannels=%d",
		globals.SRate, globals.KRate, globals.OutChannels)

	check := semantic.NewEnv(sections, global, globals, sem)
	store := compiler.NewGlobals(global)
	env := &compiler.Env{Sem: sem, Globals: globals, Store: store, Global: global}
	factory := vm.NewFactory()

	for _, e := range sections.Instruments {
		table, err := check.CheckInstrument(e)
		if err != nil {
			errs.add(err)
			continue
		}
		errs.add(generate(compiler.InstrumentSource(e, table), env, factory))
	}
	for _, e := range sections.Templates {
		table, err := check.CheckTemplate(e)
		if err != nil {
			errs.add(err)
			continue
		}
		errs.add(generate(compiler.TemplateSource(e, table), env, factory))
	}
	// Opcodes are checked so their errors surface; calls to them are
	// rejected by the generator.
	for _, e := range sections.Opcodes {
		_, err := check.CheckOpcode(e)
		errs.add(err)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return &Orchestra{
		factory: factory,
		globals: globals,
		store:   store,
		source:  source,
	}, nil
}

func generate(src compiler.Source, env *compiler.Env, factory *vm.Factory) error {
	u, err := compiler.Generate(src, env, factory)
	if err != nil {
		return err
	}
	tracer().Debugf("compiled %s", u)
	return nil
}

// MustCompile is like Compile but panics if the orchestra cannot be compiled.
func MustCompile(source string) *Orchestra {
	orch, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return orch
}

// add converts internal errors to the public types and appends them.
func (el *ErrorList) add(err error) {
	if err == nil {
		return
	}
	var semErrs semantic.ErrorList
	var semErr *semantic.Error
	var unsupported *compiler.UnsupportedError
	switch {
	case errors.As(err, &semErrs):
		for _, e := range semErrs {
			*el = append(*el, convertSemanticError(e))
		}
	case errors.As(err, &semErr):
		*el = append(*el, convertSemanticError(semErr))
	case errors.As(err, &unsupported):
		*el = append(*el, &UnsupportedError{
			Instr:   unsupported.Unit,
			Node:    unsupported.Node,
			Line:    unsupported.Pos.Line,
			Column:  unsupported.Pos.Column,
			Message: unsupportedMessage(unsupported),
		})
	default:
		*el = append(*el, &CompileError{Message: err.Error()})
	}
}

func unsupportedMessage(e *compiler.UnsupportedError) string {
	if e.Detail == "" {
		return "unsupported " + e.Node
	}
	return "unsupported " + e.Node + ": " + e.Detail
}

func convertSemanticError(e *semantic.Error) *CompileError {
	return &CompileError{
		Unit:    e.Unit,
		Line:    e.Pos.Line,
		Column:  e.Pos.Column,
		Message: e.Message,
	}
}

func convertParseError(err error) error {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Pos.Line, Column: pe.Pos.Column, Message: pe.Message}
	}
	var el parser.ErrorList
	if errors.As(err, &el) && len(el) > 0 {
		return &ParseError{Line: el[0].Pos.Line, Column: el[0].Pos.Column, Message: el[0].Message}
	}
	return &ParseError{Message: err.Error()}
}

// FormatSource parses an orchestra and returns it in canonical form,
// with every compound expression parenthesized.
func FormatSource(source string) (string, error) {
	tree, err := parser.Parse(source)
	if err != nil {
		return "", convertParseError(err)
	}
	return ast.String(tree), nil
}
