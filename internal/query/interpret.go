package query

import (
	"context"
	"math"

	"github.com/awgo/awserver/internal/models"
)

// Interpret runs a parsed Program against bridge over the window ti,
// returning the value of its last "return" statement. It mirrors
// interpret_prog: bind TIMEINTERVAL and the builtins, run Preprocess, execute
// every statement in order for side effects on env, then take whatever
// ended up bound to RETURN.
func Interpret(ctx context.Context, prog *Program, ti models.TimeInterval, bridge StoreBridge) (Value, *Error) {
	env := NewEnvironment()
	env.DeclareStatic("TIMEINTERVAL", StringValue(ti.String()))
	env.Declare("RETURN")
	Register(env)

	if err := Preprocess(prog, env); err != nil {
		return Value{}, err
	}

	for _, stmt := range prog.Stmts {
		if _, err := interpretExpr(ctx, env, bridge, stmt); err != nil {
			return Value{}, err
		}
	}

	ret, ok := env.Take("RETURN")
	if !ok {
		return Value{}, newErr(ErrEmptyQuery, "query did not return a value")
	}
	return ret, nil
}

func interpretExpr(ctx context.Context, env *Environment, bridge StoreBridge, expr Expr) (Value, *Error) {
	switch n := expr.Node.(type) {
	case BinOpNode:
		return interpretBinOp(ctx, env, bridge, n)

	case VarNode:
		v, ok := env.Take(n.Name)
		if !ok {
			return Value{}, newErr(ErrVariableNotDefined, "%s", n.Name)
		}
		return v, nil

	case AssignNode:
		val, err := interpretExpr(ctx, env, bridge, n.Value)
		if err != nil {
			return Value{}, err
		}
		if err := env.Insert(n.Name, val); err != nil {
			return Value{}, err
		}
		return None(), nil

	case FunctionNode:
		argsVal, err := interpretExpr(ctx, env, bridge, n.Args)
		if err != nil {
			return Value{}, err
		}
		args, err := asList(argsVal)
		if err != nil {
			return Value{}, err
		}
		fn, ok := env.Take(n.Name)
		if !ok {
			return Value{}, newErr(ErrVariableNotDefined, "%s", n.Name)
		}
		if fn.Kind != KindFunction {
			return Value{}, newErr(ErrInvalidType, "%s is not a function", n.Name)
		}
		return fn.Func(ctx, args, env, bridge)

	case IfNode:
		for _, clause := range n.Clauses {
			cond, err := interpretExpr(ctx, env, bridge, clause.Cond)
			if err != nil {
				return Value{}, err
			}
			matched, err := cond.QueryEq(BoolValue(true))
			if err != nil {
				return Value{}, err
			}
			if matched {
				for _, stmt := range clause.Block {
					if _, err := interpretExpr(ctx, env, bridge, stmt); err != nil {
						return Value{}, err
					}
				}
				break
			}
		}
		return None(), nil

	case ReturnNode:
		val, err := interpretExpr(ctx, env, bridge, n.Value)
		if err != nil {
			return Value{}, err
		}
		if err := env.Insert("RETURN", val); err != nil {
			return Value{}, err
		}
		return None(), nil

	case BoolNode:
		return BoolValue(n.Value), nil
	case NumberNode:
		return NumberValue(n.Value), nil
	case StringNode:
		return StringValue(n.Value), nil

	case ListNode:
		items := make([]Value, len(n.Items))
		for i, item := range n.Items {
			v, err := interpretExpr(ctx, env, bridge, item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return ListValue(items), nil

	case DictNode:
		dict := make(map[string]Value, len(n.Keys))
		for _, key := range n.Keys {
			v, err := interpretExpr(ctx, env, bridge, n.Values[key])
			if err != nil {
				return Value{}, err
			}
			dict[key] = v
		}
		return DictValue(dict), nil

	default:
		return Value{}, newErr(ErrParsing, "unknown AST node %T", n)
	}
}

func interpretBinOp(ctx context.Context, env *Environment, bridge StoreBridge, n BinOpNode) (Value, *Error) {
	a, err := interpretExpr(ctx, env, bridge, n.Left)
	if err != nil {
		return Value{}, err
	}
	b, err := interpretExpr(ctx, env, bridge, n.Right)
	if err != nil {
		return Value{}, err
	}

	if n.Op == OpEqual {
		eq, err := a.QueryEq(b)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(eq), nil
	}

	if n.Op == OpAdd {
		switch a.Kind {
		case KindNumber:
			if b.Kind != KindNumber {
				return Value{}, newErr(ErrInvalidType, "cannot use + on something that is not a number with a number!")
			}
			return NumberValue(a.Number + b.Number), nil
		case KindList:
			if b.Kind != KindList {
				return Value{}, newErr(ErrInvalidType, "cannot use + on something that is not a list with a list!")
			}
			out := make([]Value, 0, len(a.List)+len(b.List))
			out = append(out, a.List...)
			out = append(out, b.List...)
			return ListValue(out), nil
		case KindString:
			if b.Kind != KindString {
				return Value{}, newErr(ErrInvalidType, "cannot use + on something that is not a string with a string!")
			}
			return StringValue(a.Str + b.Str), nil
		default:
			return Value{}, newErr(ErrInvalidType, "cannot use + on something that is not a number, list or string!")
		}
	}

	// Sub, Mul, Div, Mod all require two numbers.
	an, aerr := asNumber(a)
	if aerr != nil {
		return Value{}, newErr(ErrInvalidType, "cannot use arithmetic on something that is not a number!")
	}
	bn, berr := asNumber(b)
	if berr != nil {
		return Value{}, newErr(ErrInvalidType, "cannot use arithmetic on something that is not a number!")
	}
	switch n.Op {
	case OpSub:
		return NumberValue(an - bn), nil
	case OpMul:
		return NumberValue(an * bn), nil
	case OpDiv:
		if bn == 0 {
			return Value{}, newErr(ErrMath, "tried to divide by zero!")
		}
		return NumberValue(an / bn), nil
	case OpMod:
		return NumberValue(math.Mod(an, bn)), nil
	default:
		return Value{}, newErr(ErrInvalidType, "unknown binary operator")
	}
}
