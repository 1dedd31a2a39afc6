// Package query implements the small, dynamically-typed scripting
// language clients use to aggregate events server-side: lex, parse,
// preprocess and interpret a short script against one time window,
// returning whatever its last "return" statement produced.
package query

import (
	"context"

	"github.com/awgo/awserver/internal/models"
)

// Run lexes, parses and interprets code against the given window, using
// bridge for any store access the script's builtins perform (query_bucket,
// query_bucket_names, find_bucket). It's the entry point the HTTP query
// endpoint calls.
func Run(ctx context.Context, code string, ti models.TimeInterval, bridge StoreBridge) (Value, *Error) {
	prog, err := Parse(code)
	if err != nil {
		return Value{}, err
	}
	return Interpret(ctx, prog, ti, bridge)
}
