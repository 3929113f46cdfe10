// Package datachecker implements a reader variant that answers a boolean
// completeness question instead of producing a Snapshot, and that can
// patch the record source with handler-supplied substitutes before
// declaring completeness. Where the reader stops a subtree on a missing
// field, datachecker instead offers each registered handler a chance to
// supply the missing value before giving up.
package datachecker

import (
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/selector"
	"github.com/zugkraft/normcache/internal/storagekey"
)

// ScalarHandler substitutes a missing scalar field's value.
type ScalarHandler func(fieldName string, parentID record.DataID, args map[string]interface{}) (value interface{}, ok bool)

// LinkedHandler substitutes a missing linked field's target id.
type LinkedHandler func(fieldName string, parentID record.DataID, args map[string]interface{}) (id record.DataID, ok bool)

// PluralLinkedHandler substitutes a missing plural linked field's target ids.
type PluralLinkedHandler func(fieldName string, parentID record.DataID, args map[string]interface{}) (ids []record.NullableID, ok bool)

// Handlers groups the three missing-field handler kinds, one per field
// shape a selection can request. A zero-value Handlers checks without any
// substitution: the first missing field makes the check incomplete.
type Handlers struct {
	Scalar       []ScalarHandler
	Linked       []LinkedHandler
	PluralLinked []PluralLinkedHandler
}

// Check walks sel against source, returning true iff every selected field
// resolves to a defined value (directly, or via a handler substitute
// patched into source along the way). A patch made while determining
// completeness is retained even if a later field turns out incomplete —
// handlers observed along the path are a strict improvement to the
// source's knowledge, not a speculative overlay.
func Check(source record.MutableSource, sel selector.Selector, registry selector.Registry, handlers Handlers) bool {
	c := &context{source: source, registry: registry, handlers: handlers, visited: make(map[visitKey]bool)}
	return c.checkID(sel.DataID, sel.Selections, sel.Variables)
}

type visitKey struct {
	id       record.DataID
	fragment string
}

type context struct {
	source   record.MutableSource
	registry selector.Registry
	handlers Handlers
	visited  map[visitKey]bool
}

func (c *context) checkID(id record.DataID, selections []selector.Node, variables map[string]interface{}) bool {
	rec, state := c.source.Get(id)
	switch state {
	case record.Unknown:
		return false
	case record.Nonexistent:
		return true // a confirmed-absent target has no fields to be missing.
	}
	return c.checkSelections(id, rec, rec.TypeName(), selections, variables)
}

func (c *context) checkSelections(id record.DataID, rec record.Record, typeName string, selections []selector.Node, variables map[string]interface{}) bool {
	for _, node := range selections {
		if !c.checkNode(id, rec, typeName, node, variables) {
			return false
		}
	}
	return true
}

func (c *context) checkNode(id record.DataID, rec record.Record, typeName string, node selector.Node, variables map[string]interface{}) bool {
	switch n := node.(type) {
	case selector.ScalarField:
		args := selector.ResolveArgs(n.Args, variables)
		key := storagekey.Encode(n.Name, args)
		return c.checkScalar(id, rec, key, n.Name, args)
	case selector.LinkedField:
		args := selector.ResolveArgs(n.Args, variables)
		key := storagekey.Encode(n.Name, args)
		return c.checkLinked(id, rec, key, n.Name, args, n.Selections, variables)
	case selector.PluralLinkedField:
		args := selector.ResolveArgs(n.Args, variables)
		key := storagekey.Encode(n.Name, args)
		return c.checkPluralLinked(id, rec, key, n.Name, args, n.Selections, variables)
	case selector.InlineFragment:
		if n.TypeCondition != "" && n.TypeCondition != typeName {
			return true
		}
		return c.checkSelections(id, rec, typeName, n.Selections, variables)
	case selector.FragmentSpread:
		def, ok := c.registry.Lookup(n.Name)
		if !ok {
			return false
		}
		vk := visitKey{id: id, fragment: n.Name}
		if c.visited[vk] {
			return true
		}
		c.visited[vk] = true
		defer delete(c.visited, vk)
		if def.TypeCondition != "" && def.TypeCondition != typeName {
			return true
		}
		bound := selector.BindFragmentArgs(n, variables)
		return c.checkSelections(id, rec, typeName, def.Selections, bound)
	case selector.Condition:
		if selector.ResolveBool(n.Value, variables) != n.PassingValue {
			return true
		}
		return c.checkSelections(id, rec, typeName, n.Selections, variables)
	case selector.HandleField:
		args := selector.ResolveArgs(n.Args, variables)
		key := storagekey.Encode(n.Name+"__"+n.Handle, args)
		if len(n.Selections) == 0 {
			return c.checkScalar(id, rec, key, n.Name, args)
		}
		return c.checkLinked(id, rec, key, n.Name, args, n.Selections, variables)
	default:
		return false
	}
}

func (c *context) checkScalar(id record.DataID, rec record.Record, key storagekey.Key, fieldName string, args map[string]interface{}) bool {
	if v, ok := rec.Get(key); ok && !record.IsUndefined(v) {
		return true
	}
	for _, h := range c.handlers.Scalar {
		if val, ok := h(fieldName, id, args); ok {
			c.patchScalar(id, key, val)
			return true
		}
	}
	return false
}

func (c *context) checkLinked(id record.DataID, rec record.Record, key storagekey.Key, fieldName string, args map[string]interface{}, selections []selector.Node, variables map[string]interface{}) bool {
	v, ok := rec.Get(key)
	if ok && !record.IsUndefined(v) {
		if lv, isLink := v.(record.Link); isLink {
			return c.checkID(lv.ID, selections, variables)
		}
		return true // explicit null link: nothing further to check.
	}
	for _, h := range c.handlers.Linked {
		target, ok := h(fieldName, id, args)
		if !ok {
			continue
		}
		c.patchLink(id, key, target)
		return c.checkID(target, selections, variables)
	}
	return false
}

func (c *context) checkPluralLinked(id record.DataID, rec record.Record, key storagekey.Key, fieldName string, args map[string]interface{}, selections []selector.Node, variables map[string]interface{}) bool {
	v, ok := rec.Get(key)
	if ok && !record.IsUndefined(v) {
		lv, isList := v.(record.LinkList)
		if !isList {
			return true // explicit null list.
		}
		for _, nid := range lv.IDs {
			if !nid.Valid {
				continue
			}
			if !c.checkID(nid.ID, selections, variables) {
				return false
			}
		}
		return true
	}
	for _, h := range c.handlers.PluralLinked {
		ids, ok := h(fieldName, id, args)
		if !ok {
			continue
		}
		c.patchLinkList(id, key, ids)
		for _, nid := range ids {
			if nid.Valid && !c.checkID(nid.ID, selections, variables) {
				return false
			}
		}
		return true
	}
	return false
}

func (c *context) patchScalar(id record.DataID, key storagekey.Key, value interface{}) {
	c.mutate(id, key, record.Scalar{Value: value})
}

func (c *context) patchLink(id record.DataID, key storagekey.Key, target record.DataID) {
	c.mutate(id, key, record.Link{ID: target})
}

func (c *context) patchLinkList(id record.DataID, key storagekey.Key, ids []record.NullableID) {
	c.mutate(id, key, record.LinkList{IDs: ids})
}

func (c *context) mutate(id record.DataID, key storagekey.Key, value record.FieldValue) {
	rec, state := c.source.Get(id)
	if state != record.Existent || rec == nil {
		rec = record.Record{}
	}
	c.source.Set(id, rec.Set(key, value))
}
