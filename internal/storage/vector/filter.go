package vector

import (
	"fmt"
	"strings"

	stderrors "novaport-mcp/internal/errors"
)

// Expr is a filter expression over embedding metadata: a nested JSON
// object combining `$and` and `$or` lists with per-key conditions
// `{"$in": [...]}`, `{"$contains": "..."}` or a bare scalar for
// equality. A nil Expr matches everything.
type Expr map[string]interface{}

// Predicate evaluates a compiled expression against one metadata map.
type Predicate func(metadata map[string]interface{}) bool

// Compile validates an expression and returns its predicate. A nil or
// empty expression compiles to a nil predicate.
func Compile(expr Expr) (Predicate, error) {
	if len(expr) == 0 {
		return nil, nil
	}
	return compileMap(expr)
}

// compileMap ANDs every entry of one expression object.
func compileMap(expr map[string]interface{}) (Predicate, error) {
	preds := make([]Predicate, 0, len(expr))
	for key, value := range expr {
		switch key {
		case "$and", "$or":
			children, err := compileList(key, value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, children)
		default:
			if strings.HasPrefix(key, "$") {
				return nil, stderrors.NewValidation("filter", "unknown filter operator: "+key, nil)
			}
			leaf, err := compileCondition(key, value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, leaf)
		}
	}
	return allOf(preds), nil
}

func compileList(op string, value interface{}) (Predicate, error) {
	var items []interface{}
	switch list := value.(type) {
	case []interface{}:
		items = list
	case []map[string]interface{}:
		items = make([]interface{}, len(list))
		for i, e := range list {
			items[i] = e
		}
	case []Expr:
		items = make([]interface{}, len(list))
		for i, e := range list {
			items[i] = e
		}
	default:
		return nil, stderrors.NewValidation("filter", op+" expects a list of expressions", value)
	}
	if len(items) == 0 {
		return nil, stderrors.NewValidation("filter", op+" expects a non-empty list", value)
	}

	preds := make([]Predicate, 0, len(items))
	for _, item := range items {
		var sub map[string]interface{}
		switch m := item.(type) {
		case map[string]interface{}:
			sub = m
		case Expr:
			sub = m
		default:
			return nil, stderrors.NewValidation("filter", op+" entries must be expression objects", item)
		}
		p, err := compileMap(sub)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if op == "$or" {
		return anyOf(preds), nil
	}
	return allOf(preds), nil
}

// compileCondition handles one metadata key: either an operator object
// or a bare scalar (equality).
func compileCondition(key string, value interface{}) (Predicate, error) {
	cond, ok := value.(map[string]interface{})
	if !ok {
		return func(meta map[string]interface{}) bool {
			return looseEqual(meta[key], value)
		}, nil
	}
	if len(cond) != 1 {
		return nil, stderrors.NewValidation("filter", "condition for '"+key+"' must hold exactly one operator", value)
	}
	for op, operand := range cond {
		switch op {
		case "$in":
			list, ok := toList(operand)
			if !ok {
				return nil, stderrors.NewValidation("filter", "$in expects a list", operand)
			}
			return func(meta map[string]interface{}) bool {
				v, present := meta[key]
				if !present {
					return false
				}
				for _, candidate := range list {
					if looseEqual(v, candidate) {
						return true
					}
				}
				return false
			}, nil
		case "$contains":
			needle, ok := operand.(string)
			if !ok {
				return nil, stderrors.NewValidation("filter", "$contains expects a string", operand)
			}
			return func(meta map[string]interface{}) bool {
				s, ok := meta[key].(string)
				return ok && strings.Contains(s, needle)
			}, nil
		default:
			return nil, stderrors.NewValidation("filter", "unknown filter operator: "+op, nil)
		}
	}
	return nil, stderrors.NewValidation("filter", "empty condition for '"+key+"'", value)
}

func allOf(preds []Predicate) Predicate {
	return func(meta map[string]interface{}) bool {
		for _, p := range preds {
			if !p(meta) {
				return false
			}
		}
		return true
	}
}

func anyOf(preds []Predicate) Predicate {
	return func(meta map[string]interface{}) bool {
		for _, p := range preds {
			if p(meta) {
				return true
			}
		}
		return false
	}
}

func toList(v interface{}) ([]interface{}, bool) {
	switch list := v.(type) {
	case []interface{}:
		return list, true
	case []string:
		out := make([]interface{}, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// looseEqual compares scalars across JSON decoding variance: all
// numeric types compare by value.
func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == b
	}
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b) &&
		fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
