package semantic

import (
	"github.com/kolkov/usaol/internal/ast"
)

// InstrumentEntry names an unchecked instrument subtree.
type InstrumentEntry struct {
	Name string
	Node *ast.InstrDecl
}

// OpcodeEntry names an unchecked user opcode subtree.
type OpcodeEntry struct {
	Name string
	Node *ast.OpcodeDecl
}

// TemplateEntry names an unchecked template subtree.
type TemplateEntry struct {
	Name string
	Node *ast.TemplateDecl
}

// Sections is a partitioned orchestra.
type Sections struct {
	// Global merges every global block, in source order. Never nil.
	Global      *ast.GlobalBlock
	Instruments []*InstrumentEntry
	Opcodes     []*OpcodeEntry
	Templates   []*TemplateEntry
}

// Partition splits an orchestra into its global section and the named
// instrument, opcode and template entries. Names share one namespace;
// a duplicate is reported and the later declaration dropped.
func Partition(orch *ast.Orchestra) (*Sections, error) {
	s := &Sections{Global: &ast.GlobalBlock{}}
	var errs ErrorList
	seen := make(map[string]string)

	claim := func(kind, name string, n ast.Node) bool {
		if _, dup := seen[name]; dup {
			errs = append(errs, &Error{
				Pos:     n.Pos(),
				Unit:    kind + " " + name,
				Node:    ast.KindOf(n),
				Message: formatf(errDuplicateUnit, seen[name], name),
			})
			return false
		}
		seen[name] = kind
		return true
	}

	first := true
	for _, item := range orch.Items {
		switch n := item.(type) {
		case *ast.GlobalBlock:
			if first {
				s.Global.Span = n.Span
				first = false
			}
			s.Global.Items = append(s.Global.Items, n.Items...)
		case *ast.InstrDecl:
			if claim("instr", n.Name, n) {
				s.Instruments = append(s.Instruments, &InstrumentEntry{Name: n.Name, Node: n})
			}
		case *ast.OpcodeDecl:
			if claim(n.Kind.String(), n.Name, n) {
				s.Opcodes = append(s.Opcodes, &OpcodeEntry{Name: n.Name, Node: n})
			}
		case *ast.TemplateDecl:
			if claim("template", n.Name, n) {
				s.Templates = append(s.Templates, &TemplateEntry{Name: n.Name, Node: n})
			}
		}
	}

	return s, errs.Err()
}

// Opcode returns the opcode entry with the given name.
func (s *Sections) Opcode(name string) (*OpcodeEntry, bool) {
	for _, op := range s.Opcodes {
		if op.Name == name {
			return op, true
		}
	}
	return nil, false
}
