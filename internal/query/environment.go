package query

import "math"

// staticRefs marks a binding that's never consumed: builtins and
// TIMEINTERVAL are declared with this ref count so Take never evicts
// them, the same role std::u32::MAX plays in the original VarEnv.
const staticRefs = math.MaxInt32

type varSlot struct {
	refs int
	val  Value
	has  bool
}

// Environment is the query script's variable table. Unlike a bare map,
// it tracks how many times each variable is still read (refs, filled in
// by Preprocess before interpretation starts) and frees a binding's
// storage the moment its last read happens — the same bookkeeping the
// original's ref-counted VarEnv performs, here actually wired into the
// interpreter instead of sitting unused beside the simpler HashMap it
// was built to replace.
type Environment struct {
	vars map[string]*varSlot
}

func NewEnvironment() *Environment {
	return &Environment{vars: map[string]*varSlot{}}
}

// Declare registers name with zero known readers if it isn't already
// present; Preprocess calls this for every assignment target, and
// AddRef raises the count as it walks each subsequent read.
func (e *Environment) Declare(name string) {
	if _, ok := e.vars[name]; !ok {
		e.vars[name] = &varSlot{}
	}
}

// DeclareStatic binds name to val with an unboundedly high ref count:
// used for builtins and TIMEINTERVAL, which live for the whole script.
func (e *Environment) DeclareStatic(name string, val Value) {
	e.vars[name] = &varSlot{refs: staticRefs, val: val, has: true}
}

// Insert assigns val to an already-declared name. Assigning to RETURN
// also adds an implicit ref, since interpret_prog always takes RETURN
// once at the very end regardless of how many times the script itself
// refers to it.
func (e *Environment) Insert(name string, val Value) *Error {
	slot, ok := e.vars[name]
	if !ok {
		return newErr(ErrVariableNotDefined, "assigned to %q before it was declared", name)
	}
	slot.val = val
	slot.has = true
	if name == "RETURN" {
		return e.AddRef("RETURN")
	}
	return nil
}

// AddRef records one more pending read of name. Called by Preprocess at
// every Var/Function reference, before interpretation runs.
func (e *Environment) AddRef(name string) *Error {
	slot, ok := e.vars[name]
	if !ok {
		return newErr(ErrVariableNotDefined, "%s", name)
	}
	if slot.refs != staticRefs {
		slot.refs++
	}
	return nil
}

// Take returns name's current value and consumes one ref, freeing the
// binding's storage once its last known reader has taken it. Static
// bindings are never consumed. Returns ok=false if name has no value
// bound (never assigned, or already exhausted).
func (e *Environment) Take(name string) (Value, bool) {
	slot, ok := e.vars[name]
	if !ok || !slot.has {
		return Value{}, false
	}
	if slot.refs == staticRefs {
		return slot.val, true
	}
	slot.refs--
	if slot.refs > 0 {
		return slot.val, true
	}
	val := slot.val
	delete(e.vars, name)
	return val, true
}

// Peek reads name's current value without consuming a ref. Used for
// TIMEINTERVAL, which callers read any number of times via Peek after
// it was declared static.
func (e *Environment) Peek(name string) (Value, bool) {
	slot, ok := e.vars[name]
	if !ok || !slot.has {
		return Value{}, false
	}
	return slot.val, true
}
