// Package reader walks a selection AST against a RecordSource, producing
// a tree-shaped Snapshot plus the set of records visited along the way.
// A subtree stops early when a reference target's state is Unknown,
// leaving the snapshot marked incomplete rather than erroring.
package reader

import (
	"github.com/zugkraft/normcache/internal/cerr"
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/selector"
	"github.com/zugkraft/normcache/internal/storagekey"
)

type visitKey struct {
	id       record.DataID
	fragment string
}

type context struct {
	source   record.Source
	registry selector.Registry
	visited  map[visitKey]bool
	snapshot *Snapshot
}

// Read produces a Snapshot for sel against source. registry resolves any
// FragmentSpread nodes sel's selections reference.
func Read(source record.Source, sel selector.Selector, registry selector.Registry) (*Snapshot, error) {
	snap := newSnapshot(sel)
	c := &context{source: source, registry: registry, visited: make(map[visitKey]bool), snapshot: snap}

	snap.SeenRecords[sel.DataID] = struct{}{}
	rec, state := source.Get(sel.DataID)
	switch state {
	case record.Unknown:
		snap.IsMissingData = true
	case record.Existent:
		if err := c.readSelections(rec.ID(), rec, rec.TypeName(), sel.Selections, sel.Variables, snap.Data); err != nil {
			return nil, err
		}
	}
	// Nonexistent root: Data stays an empty object, no selections read.
	return snap, nil
}

func (c *context) readSelections(id record.DataID, rec record.Record, typeName string, selections []selector.Node, variables map[string]interface{}, out map[string]interface{}) error {
	for _, node := range selections {
		if err := c.readNode(id, rec, typeName, node, variables, out); err != nil {
			return err
		}
	}
	return nil
}

func (c *context) readNode(id record.DataID, rec record.Record, typeName string, node selector.Node, variables map[string]interface{}, out map[string]interface{}) error {
	switch n := node.(type) {
	case selector.ScalarField:
		c.readScalar(rec, n.Name, n.ResponseKey(), selector.ResolveArgs(n.Args, variables), out)
		return nil
	case selector.LinkedField:
		return c.readLinked(rec, n, variables, out)
	case selector.PluralLinkedField:
		return c.readPluralLinked(rec, n, variables, out)
	case selector.InlineFragment:
		if n.TypeCondition != "" && n.TypeCondition != typeName {
			return nil
		}
		return c.readSelections(id, rec, typeName, n.Selections, variables, out)
	case selector.FragmentSpread:
		return c.readFragmentSpread(id, rec, typeName, n, variables, out)
	case selector.Condition:
		if selector.ResolveBool(n.Value, variables) != n.PassingValue {
			return nil
		}
		return c.readSelections(id, rec, typeName, n.Selections, variables, out)
	case selector.HandleField:
		key := storagekey.Encode(n.Name+"__"+n.Handle, selector.ResolveArgs(n.Args, variables))
		if len(n.Selections) == 0 {
			c.readScalarKey(rec, key, n.ResponseKey(), out)
			return nil
		}
		return c.readLinkedKey(rec, key, n.ResponseKey(), n.Selections, variables, out)
	default:
		return cerr.NewInvariant("unrecognized selection node %T", node)
	}
}

func (c *context) readFragmentSpread(id record.DataID, rec record.Record, typeName string, n selector.FragmentSpread, variables map[string]interface{}, out map[string]interface{}) error {
	def, ok := c.registry.Lookup(n.Name)
	if !ok {
		return cerr.NewInvariant("unresolved fragment definition %q", n.Name)
	}
	bound := selector.BindFragmentArgs(n, variables)

	if n.Masked {
		if _, ok := out["__id"]; !ok {
			out["__id"] = string(id)
		}
		frags, ok := out["__fragments"].(map[string]interface{})
		if !ok {
			frags = make(map[string]interface{})
			out["__fragments"] = frags
		}
		frags[n.Name] = bound
		return nil
	}

	vk := visitKey{id: id, fragment: n.Name}
	if c.visited[vk] {
		return nil
	}
	c.visited[vk] = true
	defer delete(c.visited, vk)

	if def.TypeCondition != "" && def.TypeCondition != typeName {
		return nil
	}
	return c.readSelections(id, rec, typeName, def.Selections, bound, out)
}

func (c *context) readScalar(rec record.Record, name, responseKey string, args map[string]interface{}, out map[string]interface{}) {
	key := storagekey.Encode(name, args)
	c.readScalarKey(rec, key, responseKey, out)
}

func (c *context) readScalarKey(rec record.Record, key storagekey.Key, responseKey string, out map[string]interface{}) {
	val, ok := rec.Get(key)
	if !ok || record.IsUndefined(val) {
		c.snapshot.IsMissingData = true
		return
	}
	switch sv := val.(type) {
	case record.Scalar:
		out[responseKey] = sv.Value
	case record.ScalarList:
		out[responseKey] = sv.Values
	default:
		c.snapshot.IsMissingData = true
	}
}

func (c *context) readLinked(rec record.Record, n selector.LinkedField, variables map[string]interface{}, out map[string]interface{}) error {
	key := storagekey.Encode(n.Name, selector.ResolveArgs(n.Args, variables))
	return c.readLinkedKey(rec, key, n.ResponseKey(), n.Selections, variables, out)
}

func (c *context) readLinkedKey(rec record.Record, key storagekey.Key, responseKey string, selections []selector.Node, variables map[string]interface{}, out map[string]interface{}) error {
	val, ok := rec.Get(key)
	if !ok || record.IsUndefined(val) {
		c.snapshot.IsMissingData = true
		return nil
	}
	switch lv := val.(type) {
	case record.Scalar:
		// An explicit null link is stored as a plain nil scalar.
		out[responseKey] = lv.Value
		return nil
	case record.Link:
		return c.readLinkInto(lv.ID, selections, variables, responseKey, out)
	default:
		c.snapshot.IsMissingData = true
		return nil
	}
}

func (c *context) readLinkInto(id record.DataID, selections []selector.Node, variables map[string]interface{}, responseKey string, out map[string]interface{}) error {
	c.snapshot.SeenRecords[id] = struct{}{}
	childRec, state := c.source.Get(id)
	switch state {
	case record.Unknown:
		c.snapshot.IsMissingData = true
		return nil
	case record.Nonexistent:
		out[responseKey] = nil
		return nil
	default:
		childOut := make(map[string]interface{})
		if err := c.readSelections(childRec.ID(), childRec, childRec.TypeName(), selections, variables, childOut); err != nil {
			return err
		}
		out[responseKey] = childOut
		return nil
	}
}

func (c *context) readPluralLinked(rec record.Record, n selector.PluralLinkedField, variables map[string]interface{}, out map[string]interface{}) error {
	key := storagekey.Encode(n.Name, selector.ResolveArgs(n.Args, variables))
	val, ok := rec.Get(key)
	if !ok || record.IsUndefined(val) {
		c.snapshot.IsMissingData = true
		return nil
	}
	switch lv := val.(type) {
	case record.Scalar:
		out[n.ResponseKey()] = lv.Value
		return nil
	case record.LinkList:
		list := make([]interface{}, len(lv.IDs))
		for i, nid := range lv.IDs {
			if !nid.Valid {
				list[i] = nil
				continue
			}
			elemOut := make(map[string]interface{})
			if err := c.readLinkInto(nid.ID, n.Selections, variables, "_", elemOut); err != nil {
				return err
			}
			list[i] = elemOut["_"]
		}
		out[n.ResponseKey()] = list
		return nil
	default:
		c.snapshot.IsMissingData = true
		return nil
	}
}
