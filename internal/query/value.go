package query

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/transform"
)

// Kind tags which alternative of Value is populated, standing in for the
// DataType enum. Go has no tagged unions, so Value carries one field per
// alternative and Kind says which is live; callers should only read the
// field that matches Kind.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindNumber
	KindString
	KindEvent
	KindList
	KindDict
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindBool:
		return "Bool"
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindEvent:
		return "Event"
	case KindList:
		return "List"
	case KindDict:
		return "Dict"
	case KindFunction:
		return "Function"
	default:
		return "Unknown"
	}
}

// BuiltinFunc is the signature every registered query function has:
// evaluated arguments in, a single Value or an Error out. env is passed
// through so a function can read TIMEINTERVAL; bridge gives store-backed
// builtins (query_bucket and friends) read access to the event store.
type BuiltinFunc func(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error)

// Value is the tagged union every expression evaluates to.
type Value struct {
	Kind Kind

	Bool   bool
	Number float64
	Str    string
	Event  models.Event
	List   []Value
	Dict   map[string]Value

	FuncName string
	Func     BuiltinFunc
}

func None() Value                { return Value{Kind: KindNone} }
func BoolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Number: n} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func EventValue(e models.Event) Value { return Value{Kind: KindEvent, Event: e} }
func ListValue(items []Value) Value { return Value{Kind: KindList, List: items} }
func DictValue(d map[string]Value) Value { return Value{Kind: KindDict, Dict: d} }
func FunctionValue(name string, fn BuiltinFunc) Value {
	return Value{Kind: KindFunction, FuncName: name, Func: fn}
}

// MarshalJSON renders a Value the way a query result is shown to API
// clients: as the plain JSON value it represents, not as the tagged
// union Go stores it in. A Function value cannot appear in a query's
// result (return can only yield data, never a builtin), so it marshals
// to an error rather than silently dropping information.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNone:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		return json.Marshal(v.Number)
	case KindString:
		return json.Marshal(v.Str)
	case KindEvent:
		return json.Marshal(v.Event)
	case KindList:
		return json.Marshal(v.List)
	case KindDict:
		return json.Marshal(v.Dict)
	default:
		return nil, fmt.Errorf("cannot marshal a %s value to JSON", v.Kind)
	}
}

func EventsValue(events []models.Event) Value {
	out := make([]Value, len(events))
	for i, e := range events {
		out[i] = EventValue(e)
	}
	return ListValue(out)
}

// structEqual is the infallible, same-kind-assumed structural equality
// used to compare list/dict elements; it never errors, matching how the
// derived PartialEq impl compares nested DataType values without the
// cross-type check query_eq performs at the top level.
func structEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNone:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Number == b.Number
	case KindString:
		return a.Str == b.Str
	case KindEvent:
		return a.Event.Equal(b.Event)
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !structEqual(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(a.Dict) != len(b.Dict) {
			return false
		}
		for k, v := range a.Dict {
			ov, ok := b.Dict[k]
			if !ok || !structEqual(v, ov) {
				return false
			}
		}
		return true
	default:
		// Functions are never considered equal, even to themselves.
		return false
	}
}

// QueryEq is the typed equality the "==" operator uses: it errors when
// asked to compare values of different kinds, and — matching the
// original's quirk exactly — None == None is false, not true.
func (a Value) QueryEq(b Value) (bool, *Error) {
	if a.Kind != b.Kind {
		return false, newErr(ErrInvalidType, "cannot compare values of different types %s and %s", a.Kind, b.Kind)
	}
	if a.Kind == KindNone {
		return false, nil
	}
	if a.Kind == KindFunction {
		return false, newErr(ErrInvalidType, "cannot compare values of different types %s and %s", a.Kind, b.Kind)
	}
	return structEqual(a, b), nil
}

// listContains reports whether list contains an element equal to v, using
// structEqual — mirroring Vec::contains's use of PartialEq.
func listContains(list []Value, v Value) bool {
	for _, item := range list {
		if structEqual(item, v) {
			return true
		}
	}
	return false
}

// --- conversions from Value, mirroring the TryFrom<&DataType> impls ---

func asList(v Value) ([]Value, *Error) {
	if v.Kind != KindList {
		return nil, newErr(ErrInvalidFunctionParameters, "expected function parameter of type List, got %s", v.Kind)
	}
	return v.List, nil
}

func asString(v Value) (string, *Error) {
	if v.Kind != KindString {
		return "", newErr(ErrInvalidFunctionParameters, "expected function parameter of type String, got %s", v.Kind)
	}
	return v.Str, nil
}

func asStringList(v Value) ([]string, *Error) {
	items, err := asList(v)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, err := asString(item)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func asEventList(v Value) ([]models.Event, *Error) {
	items, err := asList(v)
	if err != nil {
		return nil, err
	}
	out := make([]models.Event, len(items))
	for i, item := range items {
		if item.Kind != KindEvent {
			return nil, newErr(ErrInvalidFunctionParameters, "expected function parameter of type List of Events, list contains %s", item.Kind)
		}
		out[i] = item.Event
	}
	return out, nil
}

func asNumber(v Value) (float64, *Error) {
	if v.Kind != KindNumber {
		return 0, newErr(ErrInvalidFunctionParameters, "expected function parameter of type Number, got %s", v.Kind)
	}
	return v.Number, nil
}

func asCount(v Value) (int, *Error) {
	n, err := asNumber(v)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

var ruleFields = map[string]bool{"type": true, "regex": true, "ignore_case": true}

// asRule converts a rule dict literal — {"type": "regex"|"none", "regex":
// "...", "ignore_case": bool} — into a transform.Matcher. type is
// required; regex is required when type is "regex"; any other field, or
// an ill-typed one, is a parameter error.
func asRule(v Value) (transform.Matcher, *Error) {
	if v.Kind != KindDict {
		return nil, newErr(ErrInvalidFunctionParameters, "expected rule, found something else")
	}
	for k := range v.Dict {
		if !ruleFields[k] {
			return nil, newErr(ErrInvalidFunctionParameters, "unknown rule field %q", k)
		}
	}
	typeVal, ok := v.Dict["type"]
	if !ok {
		return nil, newErr(ErrInvalidFunctionParameters, "rule dict is missing required field \"type\"")
	}
	typeStr, err := asString(typeVal)
	if err != nil {
		return nil, err
	}

	switch typeStr {
	case "none":
		return transform.NoneMatcher(), nil
	case "regex":
		regexVal, ok := v.Dict["regex"]
		if !ok {
			return nil, newErr(ErrInvalidFunctionParameters, "rule of type \"regex\" is missing required field \"regex\"")
		}
		pattern, err := asString(regexVal)
		if err != nil {
			return nil, err
		}
		ignoreCase := false
		if ic, ok := v.Dict["ignore_case"]; ok {
			if ic.Kind != KindBool {
				return nil, newErr(ErrInvalidFunctionParameters, "rule field \"ignore_case\" must be a bool")
			}
			ignoreCase = ic.Bool
		}
		m, rerr := transform.NewRegexMatcher(pattern, ignoreCase)
		if rerr != nil {
			return nil, newErr(ErrRegexCompile, "failed to compile regex %q: %v", pattern, rerr)
		}
		return m, nil
	default:
		return nil, newErr(ErrInvalidFunctionParameters, "unknown rule type %q", typeStr)
	}
}

// asTagRules converts a List of [tag, rule] pairs into transform.TagRule.
func asTagRules(v Value) ([]transform.TagRule, *Error) {
	items, err := asList(v)
	if err != nil {
		return nil, err
	}
	out := make([]transform.TagRule, 0, len(items))
	for _, item := range items {
		pair, err := asList(item)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, newErr(ErrInvalidFunctionParameters, "expected function parameter of type list of (tag, rule) tuples")
		}
		tag, err := asString(pair[0])
		if err != nil {
			return nil, err
		}
		rule, err := asRule(pair[1])
		if err != nil {
			return nil, err
		}
		out = append(out, transform.TagRule{Tag: tag, Matcher: rule})
	}
	return out, nil
}

// asCategoryRules converts a List of [category-path, rule] pairs into
// transform.CategoryRule.
func asCategoryRules(v Value) ([]transform.CategoryRule, *Error) {
	items, err := asList(v)
	if err != nil {
		return nil, err
	}
	out := make([]transform.CategoryRule, 0, len(items))
	for _, item := range items {
		pair, err := asList(item)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, newErr(ErrInvalidFunctionParameters, "expected function parameter of type list of (category, rule) tuples")
		}
		category, err := asStringList(pair[0])
		if err != nil {
			return nil, err
		}
		rule, err := asRule(pair[1])
		if err != nil {
			return nil, err
		}
		out = append(out, transform.CategoryRule{Category: category, Matcher: rule})
	}
	return out, nil
}

// asAnyList converts a List into a []any of Go primitives (string,
// float64, nil), mirroring TryFrom<&DataType> for Vec<serde_json::Value>
// with the same restriction: only strings, numbers and null are allowed.
func asAnyList(v Value) ([]any, *Error) {
	items, err := asList(v)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, item := range items {
		switch item.Kind {
		case KindString:
			out[i] = item.Str
		case KindNumber:
			out[i] = item.Number
		case KindNone:
			out[i] = nil
		default:
			return nil, newErr(ErrInvalidFunctionParameters, "value parsing only supports strings, numbers and null, list contains %s", item.Kind)
		}
	}
	return out, nil
}
