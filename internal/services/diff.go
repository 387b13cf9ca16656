package services

import (
	"context"
	"encoding/json"
	"sort"

	"novaport-mcp/internal/storage/sqlite"
	"novaport-mcp/pkg/types"
)

// DiffContextVersions compares two history snapshots of a singleton
// context and returns the edit operations turning version A into
// version B. Missing versions surface as not-found errors naming the
// version that was absent. Equal versions yield an empty list.
func (s *MetaService) DiffContextVersions(ctx context.Context, kind sqlite.ContextKind, versionA, versionB int) ([]types.DiffOp, error) {
	a, err := s.ws.Store.GetContextVersion(ctx, kind, versionA)
	if err != nil {
		return nil, err
	}
	b, err := s.ws.Store.GetContextVersion(ctx, kind, versionB)
	if err != nil {
		return nil, err
	}
	ops := diffObjects(nil, a.Content, b.Content)
	if ops == nil {
		ops = []types.DiffOp{}
	}
	return ops, nil
}

// diffObjects walks both objects key by key, recursing into nested
// maps and emitting add/remove/change ops in sorted key order.
func diffObjects(path []string, a, b map[string]interface{}) []types.DiffOp {
	keys := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range b {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var ops []types.DiffOp
	for _, k := range keys {
		childPath := appendPath(path, k)
		av, inA := a[k]
		bv, inB := b[k]
		switch {
		case !inA:
			ops = append(ops, types.DiffOp{Op: "add", Path: childPath, Value: bv})
		case !inB:
			ops = append(ops, types.DiffOp{Op: "remove", Path: childPath, Value: av})
		default:
			am, aIsMap := av.(map[string]interface{})
			bm, bIsMap := bv.(map[string]interface{})
			if aIsMap && bIsMap {
				ops = append(ops, diffObjects(childPath, am, bm)...)
				continue
			}
			if !jsonEqual(av, bv) {
				ops = append(ops, types.DiffOp{Op: "change", Path: childPath, Value: []interface{}{av, bv}})
			}
		}
	}
	return ops
}

// appendPath copies before appending so sibling branches never share a
// backing array.
func appendPath(path []string, key string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = key
	return out
}

// jsonEqual compares two values by canonical JSON encoding: map keys
// are sorted on marshal, so byte equality is deep equality.
func jsonEqual(a, b interface{}) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ab) == string(bb)
}
