package query

// Preprocess walks a parsed Program once before interpretation, in the
// same shape as preprocess_expr: every Var and Function reference adds a
// ref on its binding (surfacing an undefined-variable error up front,
// before any side effect has run), and every Assign target gets declared
// so later references resolve. env must already have TIMEINTERVAL and
// the builtins bound via DeclareStatic.
func Preprocess(prog *Program, env *Environment) *Error {
	for _, stmt := range prog.Stmts {
		if err := preprocessExpr(env, stmt); err != nil {
			return err
		}
	}
	return nil
}

func preprocessExpr(env *Environment, expr Expr) *Error {
	switch n := expr.Node.(type) {
	case VarNode:
		return env.AddRef(n.Name)

	case BinOpNode:
		if err := preprocessExpr(env, n.Left); err != nil {
			return err
		}
		return preprocessExpr(env, n.Right)

	case AssignNode:
		if err := preprocessExpr(env, n.Value); err != nil {
			return err
		}
		env.Declare(n.Name)
		return nil

	case FunctionNode:
		if err := env.AddRef(n.Name); err != nil {
			return err
		}
		return preprocessExpr(env, n.Args)

	case IfNode:
		for _, clause := range n.Clauses {
			if err := preprocessExpr(env, clause.Cond); err != nil {
				return err
			}
			for _, stmt := range clause.Block {
				if err := preprocessExpr(env, stmt); err != nil {
					return err
				}
			}
		}
		return nil

	case ListNode:
		for _, item := range n.Items {
			if err := preprocessExpr(env, item); err != nil {
				return err
			}
		}
		return nil

	case DictNode:
		for _, key := range n.Keys {
			if err := preprocessExpr(env, n.Values[key]); err != nil {
				return err
			}
		}
		return nil

	case ReturnNode:
		return preprocessExpr(env, n.Value)

	case BoolNode, NumberNode, StringNode:
		return nil

	default:
		return newErr(ErrParsing, "unknown AST node %T", n)
	}
}
