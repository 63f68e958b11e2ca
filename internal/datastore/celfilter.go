package datastore

import (
	"encoding/json"
	"strings"

	"github.com/google/cel-go/cel"
)

// CompileFilter compiles a CEL expression into a Predicate. The expression
// sees three variables:
//
//	key    string  the record key
//	value  string  the record value
//	json   dyn     the value parsed as JSON, or null when it is not JSON
//
// An empty expression matches every record. Evaluation errors and non-bool
// results count as "no match".
//
//	pred, _ := datastore.CompileFilter(`key.startsWith("slack.") && value != ""`)
func CompileFilter(expr string) (Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return func(_, _ []byte) bool { return true }, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("key", cel.StringType),
		cel.Variable("value", cel.StringType),
		cel.Variable("json", cel.DynType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return func(key, value []byte) bool {
		var doc any
		if err := json.Unmarshal(value, &doc); err != nil {
			doc = nil
		}
		out, _, err := prog.Eval(map[string]any{
			"key":   string(key),
			"value": string(value),
			"json":  doc,
		})
		if err != nil {
			return false
		}
		b, ok := out.Value().(bool)
		return ok && b
	}, nil
}
