package semantic

import (
	"fmt"

	"github.com/kolkov/usaol/internal/token"
)

// VariableEntry describes one declared variable. Entries are created by
// the checker and never modified afterward.
type VariableEntry struct {
	Name    string
	Width   int  // element count, or a Width* sentinel
	Rate    Rate // declared rate
	Array   bool // declared with brackets
	Imports bool
	Exports bool
	Pos     token.Position
}

func (e *VariableEntry) String() string {
	tags := ""
	if e.Imports {
		tags += "I"
	}
	if e.Exports {
		tags += "E"
	}
	return fmt.Sprintf("%s{width=%d rate=%s tags=%q}", e.Name, e.Width, e.Rate, tags)
}

// VariableTable is an insertion-ordered set of uniquely named variables.
type VariableTable struct {
	name    string
	entries []*VariableEntry
	index   map[string]int
}

// NewVariableTable creates an empty table. The name is used in diagnostics.
func NewVariableTable(name string) *VariableTable {
	return &VariableTable{
		name:  name,
		index: make(map[string]int),
	}
}

// Name returns the table's name.
func (t *VariableTable) Name() string { return t.name }

// Add appends an entry. It fails if the name is already declared.
func (t *VariableTable) Add(e *VariableEntry) error {
	if _, exists := t.index[e.Name]; exists {
		return fmt.Errorf(errDuplicateVar, e.Name)
	}
	t.index[e.Name] = len(t.entries)
	t.entries = append(t.entries, e)
	return nil
}

// Lookup finds a variable in this table only.
func (t *VariableTable) Lookup(name string) (*VariableEntry, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.entries[i], true
}

// Index returns the declaration order of name, or -1.
func (t *VariableTable) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Entries returns the entries in declaration order.
func (t *VariableTable) Entries() []*VariableEntry {
	return t.entries
}

// Len returns the number of entries.
func (t *VariableTable) Len() int {
	return len(t.entries)
}

// Scope resolves names in a unit's own table, then the global table.
type Scope struct {
	Local  *VariableTable
	Global *VariableTable
}

// Resolve looks name up in the local table and then the global table.
// global reports which table the entry came from.
func (s Scope) Resolve(name string) (e *VariableEntry, global bool, ok bool) {
	if e, ok := s.Local.Lookup(name); ok {
		return e, false, true
	}
	if e, ok := s.Global.Lookup(name); ok {
		return e, true, true
	}
	return nil, false, false
}
