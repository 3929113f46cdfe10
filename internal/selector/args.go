package selector

// ResolveArgs evaluates each ArgumentDef against variables, dropping any
// argument whose value is undefined. A Literal is always defined. A
// VariableRef is undefined when its name is absent from variables — not
// merely when it resolves to nil, which is itself a valid (included)
// argument value.
func ResolveArgs(defs []ArgumentDef, variables map[string]interface{}) map[string]interface{} {
	if len(defs) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(defs))
	for _, def := range defs {
		switch v := def.Value.(type) {
		case Literal:
			out[def.Name] = v.Value
		case VariableRef:
			val, ok := variables[v.Name]
			if !ok {
				continue
			}
			out[def.Name] = val
		}
	}
	return out
}

// ResolveBool evaluates a Condition's Value against variables, defaulting
// to false when a referenced variable is absent.
func ResolveBool(v ArgumentValue, variables map[string]interface{}) bool {
	switch val := v.(type) {
	case Literal:
		b, _ := val.Value.(bool)
		return b
	case VariableRef:
		raw, ok := variables[val.Name]
		if !ok {
			return false
		}
		b, _ := raw.(bool)
		return b
	default:
		return false
	}
}

// BindFragmentArgs computes the variable map a FragmentSpread's own
// Selections should be read/written under: outer scope with the spread's
// argument bindings overlaid, mirroring GraphQL's @arguments-on-spread
// pattern.
func BindFragmentArgs(spread FragmentSpread, outer map[string]interface{}) map[string]interface{} {
	if len(spread.Args) == 0 {
		return outer
	}
	bound := make(map[string]interface{}, len(outer)+len(spread.Args))
	for k, v := range outer {
		bound[k] = v
	}
	for k, v := range ResolveArgs(spread.Args, outer) {
		bound[k] = v
	}
	return bound
}
