// Package selector defines the selection AST that the normalizer, reader,
// and data checker all walk: a closed sum of node kinds mirroring a
// compiled GraphQL selection, an argument-resolution scheme keyed by
// variables, and the Selector/Registry types used to address a read or
// write.
//
// Callers construct or receive an already-compiled tree; parsing a
// GraphQL document or schema into this AST is out of scope here.
package selector

import "github.com/zugkraft/normcache/internal/record"

// Node is the closed sum of selection AST node kinds.
type Node interface {
	isNode()
}

// ArgumentValue is either a compile-time Literal or a VariableRef resolved
// against a Selector's Variables at read/write time.
type ArgumentValue interface {
	isArgumentValue()
}

// Literal is a constant argument value baked into the AST.
type Literal struct{ Value interface{} }

func (Literal) isArgumentValue() {}

// VariableRef names a variable bound by the enclosing Selector.
type VariableRef struct{ Name string }

func (VariableRef) isArgumentValue() {}

// ArgumentDef pairs an argument name with how to resolve its value.
type ArgumentDef struct {
	Name  string
	Value ArgumentValue
}

// ScalarField selects a leaf value.
type ScalarField struct {
	Name  string
	Alias string
	Args  []ArgumentDef
}

func (ScalarField) isNode() {}

// ResponseKey is the field's alias if set, else its name — the key under
// which the reader writes this field's value in a Snapshot's data tree.
func (f ScalarField) ResponseKey() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// LinkedField selects a single linked record.
type LinkedField struct {
	Name         string
	Alias        string
	Args         []ArgumentDef
	ConcreteType string // "" if not type-constrained
	Selections   []Node
}

func (LinkedField) isNode() {}

func (f LinkedField) ResponseKey() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// PluralLinkedField selects a list of linked records.
type PluralLinkedField struct {
	Name         string
	Alias        string
	Args         []ArgumentDef
	ConcreteType string
	Selections   []Node
}

func (PluralLinkedField) isNode() {}

func (f PluralLinkedField) ResponseKey() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// FragmentSpread inlines another fragment's selections. Masked marks a
// fragment boundary the reader should stop at and emit a fragment pointer
// for instead of inlining.
type FragmentSpread struct {
	Name   string
	Args   []ArgumentDef
	Masked bool
}

func (FragmentSpread) isNode() {}

// InlineFragment enters only when the current record's __typename matches
// TypeCondition (or TypeCondition is "").
type InlineFragment struct {
	TypeCondition string
	Selections    []Node
}

func (InlineFragment) isNode() {}

// Condition implements @include/@skip: Selections are visited only when
// the resolved boolean (literal or variable) equals PassingValue.
type Condition struct {
	PassingValue bool
	Value        ArgumentValue // Literal{bool} or VariableRef
	Selections   []Node
}

func (Condition) isNode() {}

// HandleField defers population of the field to a registered handler
// keyed by Handle; the normalizer emits a HandleFieldPayload for it
// instead of (or in addition to) writing straight from the response.
type HandleField struct {
	Name       string
	Alias      string
	Args       []ArgumentDef
	Handle     string
	Key        string
	Selections []Node
}

func (HandleField) isNode() {}

func (f HandleField) ResponseKey() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// FragmentDefinition is a named, reusable selection set that
// FragmentSpread nodes reference by name.
type FragmentDefinition struct {
	Name          string
	TypeCondition string
	Selections    []Node
}

// Registry resolves fragment names to definitions, the compiled-artifact
// equivalent of a GraphQL document's named fragments.
type Registry map[string]*FragmentDefinition

func (r Registry) Lookup(name string) (*FragmentDefinition, bool) {
	def, ok := r[name]
	return def, ok
}

// Selector is §3.1's {dataID, node, variables}: the root identity to read
// or write from, the selections to apply, and the variable bindings free
// references in those selections resolve against.
type Selector struct {
	DataID     record.DataID
	Selections []Node
	Variables  map[string]interface{}
}
