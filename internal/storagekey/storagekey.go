// Package storagekey implements the canonical (field, arguments) string
// encoding used to address a field's slot inside a Record.
//
// Arguments are sorted by name and serialized with no incidental
// whitespace, so two semantically identical argument sets always produce
// the same Key regardless of the order they were supplied in.
package storagekey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key is the canonical string `"<fieldName>(<canonical-args-json>)"`, or
// just `"<fieldName>"` when there are no arguments.
type Key string

// Encode derives the canonical Key for fieldName given its resolved
// argument values. Arguments whose value is nil-as-absent (represented by
// the caller omitting them from args) are never included; callers resolving
// variables against an operation's variable map should drop any argument
// whose resolution is undefined before calling Encode.
func Encode(fieldName string, args map[string]interface{}) Key {
	if len(args) == 0 {
		return Key(fieldName)
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(fieldName)
	b.WriteByte('(')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte(':')
		writeCanonical(&b, args[name])
	}
	b.WriteByte(')')
	return Key(b.String())
}

// writeCanonical writes v as canonical JSON: object keys sorted
// lexicographically, arrays in their given order, no extraneous whitespace.
func writeCanonical(b *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		b.WriteString(strconv.Quote(val))
	case int:
		b.WriteString(strconv.Itoa(val))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case float64:
		b.WriteString(formatFloat(val))
	case []interface{}:
		b.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, elem)
		}
		b.WriteByte(']')
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			writeCanonical(b, val[k])
		}
		b.WriteByte('}')
	default:
		// Scalars outside the JSON value set (e.g. a caller-supplied enum
		// wrapper) fall back to fmt; the encoding is still deterministic
		// for a fixed Go type as long as that type implements Stringer or
		// a stable default format.
		b.WriteString(strconv.Quote(fmt.Sprintf("%v", val)))
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
