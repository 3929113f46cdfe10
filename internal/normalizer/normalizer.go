// Package normalizer walks a selection AST and a matching response tree
// in lock-step, writing records under stable storage keys and linking
// them by identity. One response payload can create, link, and fan out
// into many records.
package normalizer

import (
	"fmt"

	"github.com/zugkraft/normcache/internal/cerr"
	"github.com/zugkraft/normcache/internal/handle"
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/selector"
	"github.com/zugkraft/normcache/internal/storagekey"
)

type context struct {
	source   record.MutableSource
	registry selector.Registry
	payloads []handle.Payload
}

// Normalize writes response into source according to sel's selections,
// returning the HandleFieldPayloads collected in traversal order. On a
// ShapeError no partial writes are rolled back by Normalize itself —
// callers that need all-or-nothing semantics (internal/publishqueue's
// commit and optimistic paths) normalize into a fresh source and discard
// it on error.
func Normalize(source record.MutableSource, response map[string]interface{}, sel selector.Selector, registry selector.Registry) ([]handle.Payload, error) {
	ctx := &context{source: source, registry: registry}
	typeName, _ := scalarString(response["__typename"])
	if err := ctx.writeRecord(sel.DataID, typeName, response, sel.Selections, sel.Variables); err != nil {
		return nil, err
	}
	return ctx.payloads, nil
}

func (ctx *context) writeRecord(id record.DataID, typeName string, respObj map[string]interface{}, selections []selector.Node, variables map[string]interface{}) error {
	if typeName != "" {
		ctx.setField(id, record.TypeNameKey, record.Scalar{Value: typeName})
	}
	ctx.setField(id, record.IDKey, record.Scalar{Value: string(id)})
	return ctx.writeSelections(id, typeName, respObj, selections, variables)
}

func (ctx *context) writeSelections(id record.DataID, typeName string, respObj map[string]interface{}, selections []selector.Node, variables map[string]interface{}) error {
	for _, node := range selections {
		if err := ctx.writeNode(id, typeName, respObj, node, variables); err != nil {
			return err
		}
	}
	return nil
}

func (ctx *context) writeNode(id record.DataID, typeName string, respObj map[string]interface{}, node selector.Node, variables map[string]interface{}) error {
	switch n := node.(type) {
	case selector.ScalarField:
		return ctx.writeScalarField(id, respObj, n, variables)
	case selector.LinkedField:
		return ctx.writeLinkedField(id, respObj, n, variables)
	case selector.PluralLinkedField:
		return ctx.writePluralLinkedField(id, respObj, n, variables)
	case selector.InlineFragment:
		if n.TypeCondition != "" && n.TypeCondition != typeName {
			return nil
		}
		return ctx.writeSelections(id, typeName, respObj, n.Selections, variables)
	case selector.FragmentSpread:
		def, ok := ctx.registry.Lookup(n.Name)
		if !ok {
			return cerr.NewInvariant("unresolved fragment definition %q", n.Name)
		}
		if def.TypeCondition != "" && def.TypeCondition != typeName {
			return nil
		}
		bound := selector.BindFragmentArgs(n, variables)
		return ctx.writeSelections(id, typeName, respObj, def.Selections, bound)
	case selector.Condition:
		if selector.ResolveBool(n.Value, variables) != n.PassingValue {
			return nil
		}
		return ctx.writeSelections(id, typeName, respObj, n.Selections, variables)
	case selector.HandleField:
		args := selector.ResolveArgs(n.Args, variables)
		key := storagekey.Encode(n.Name+"__"+n.Handle, args)
		ctx.payloads = append(ctx.payloads, handle.Payload{
			Args:      args,
			DataID:    id,
			FieldKey:  string(key),
			Handle:    n.Handle,
			HandleKey: n.Key,
		})
		return nil
	default:
		return cerr.NewInvariant("unrecognized selection node %T", node)
	}
}

func (ctx *context) writeScalarField(id record.DataID, respObj map[string]interface{}, n selector.ScalarField, variables map[string]interface{}) error {
	key := storagekey.Encode(n.Name, selector.ResolveArgs(n.Args, variables))
	val, ok := respObj[n.ResponseKey()]
	if !ok {
		ctx.setField(id, key, record.Undefined)
		return nil
	}
	if list, isList := val.([]interface{}); isList {
		ctx.setField(id, key, record.ScalarList{Values: list})
		return nil
	}
	ctx.setField(id, key, record.Scalar{Value: val})
	return nil
}

func (ctx *context) writeLinkedField(id record.DataID, respObj map[string]interface{}, n selector.LinkedField, variables map[string]interface{}) error {
	key := storagekey.Encode(n.Name, selector.ResolveArgs(n.Args, variables))
	rawVal, ok := respObj[n.ResponseKey()]
	if !ok {
		ctx.setField(id, key, record.Undefined)
		return nil
	}
	if rawVal == nil {
		ctx.setField(id, key, record.Scalar{Value: nil})
		return nil
	}
	childObj, ok := rawVal.(map[string]interface{})
	if !ok {
		return cerr.NewShape(string(key), "expected object for linked field %q, got %T", n.Name, rawVal)
	}
	childTypeName, _ := scalarString(childObj["__typename"])
	childID := deriveChildID(id, key, childObj, 0, false)
	ctx.setField(id, key, record.Link{ID: childID})
	return ctx.writeRecord(childID, childTypeName, childObj, n.Selections, variables)
}

func (ctx *context) writePluralLinkedField(id record.DataID, respObj map[string]interface{}, n selector.PluralLinkedField, variables map[string]interface{}) error {
	key := storagekey.Encode(n.Name, selector.ResolveArgs(n.Args, variables))
	rawVal, ok := respObj[n.ResponseKey()]
	if !ok {
		ctx.setField(id, key, record.Undefined)
		return nil
	}
	if rawVal == nil {
		ctx.setField(id, key, record.Scalar{Value: nil})
		return nil
	}
	list, ok := rawVal.([]interface{})
	if !ok {
		return cerr.NewShape(string(key), "expected list for plural linked field %q, got %T", n.Name, rawVal)
	}
	ids := make([]record.NullableID, len(list))
	for i, elem := range list {
		if elem == nil {
			ids[i] = record.NullableID{Valid: false}
			continue
		}
		childObj, ok := elem.(map[string]interface{})
		if !ok {
			return cerr.NewShape(fmt.Sprintf("%s[%d]", key, i), "expected object, got %T", elem)
		}
		childTypeName, _ := scalarString(childObj["__typename"])
		childID := deriveChildID(id, key, childObj, i, true)
		ids[i] = record.NullableID{ID: childID, Valid: true}
		if err := ctx.writeRecord(childID, childTypeName, childObj, n.Selections, variables); err != nil {
			return err
		}
	}
	ctx.setField(id, key, record.LinkList{IDs: ids})
	return nil
}

func (ctx *context) setField(id record.DataID, key storagekey.Key, value record.FieldValue) {
	rec, state := ctx.source.Get(id)
	if state != record.Existent || rec == nil {
		rec = record.Record{}
	}
	if cur, ok := rec.Get(key); ok && record.Equal(cur, value) {
		ctx.source.Set(id, rec)
		return
	}
	ctx.source.Set(id, rec.Set(key, value))
}

func scalarString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
