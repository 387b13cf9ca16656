package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "novaport-mcp/internal/errors"
)

func TestCompileNil(t *testing.T) {
	pred, err := Compile(nil)
	require.NoError(t, err)
	assert.Nil(t, pred)

	pred, err = Compile(Expr{})
	require.NoError(t, err)
	assert.Nil(t, pred)
}

func TestEqualityCondition(t *testing.T) {
	pred, err := Compile(Expr{"item_type": "decision"})
	require.NoError(t, err)

	assert.True(t, pred(map[string]interface{}{"item_type": "decision"}))
	assert.False(t, pred(map[string]interface{}{"item_type": "progress_entry"}))
	assert.False(t, pred(map[string]interface{}{}))
}

func TestInCondition(t *testing.T) {
	pred, err := Compile(Expr{"item_type": map[string]interface{}{
		"$in": []interface{}{"decision", "custom_data"},
	}})
	require.NoError(t, err)

	assert.True(t, pred(map[string]interface{}{"item_type": "custom_data"}))
	assert.False(t, pred(map[string]interface{}{"item_type": "system_pattern"}))
}

func TestContainsCondition(t *testing.T) {
	pred, err := Compile(Expr{"tags": map[string]interface{}{"$contains": "db"}})
	require.NoError(t, err)

	assert.True(t, pred(map[string]interface{}{"tags": "db,pg"}))
	assert.False(t, pred(map[string]interface{}{"tags": "frontend"}))
	assert.False(t, pred(map[string]interface{}{"tags": 7}))
}

func TestAndOrComposition(t *testing.T) {
	pred, err := Compile(Expr{"$and": []interface{}{
		map[string]interface{}{"item_type": map[string]interface{}{"$in": []interface{}{"decision"}}},
		map[string]interface{}{"$or": []interface{}{
			map[string]interface{}{"tags": map[string]interface{}{"$contains": "db"}},
			map[string]interface{}{"tags": map[string]interface{}{"$contains": "infra"}},
		}},
	}})
	require.NoError(t, err)

	assert.True(t, pred(map[string]interface{}{"item_type": "decision", "tags": "infra"}))
	assert.False(t, pred(map[string]interface{}{"item_type": "decision", "tags": "frontend"}))
	assert.False(t, pred(map[string]interface{}{"item_type": "custom_data", "tags": "db"}))
}

func TestNumericEqualityAcrossJSONTypes(t *testing.T) {
	pred, err := Compile(Expr{"version": map[string]interface{}{"$in": []interface{}{float64(2)}}})
	require.NoError(t, err)

	assert.True(t, pred(map[string]interface{}{"version": 2}))
	assert.True(t, pred(map[string]interface{}{"version": float64(2)}))
	assert.False(t, pred(map[string]interface{}{"version": 3}))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
	}{
		{"unknown top operator", Expr{"$nor": []interface{}{}}},
		{"unknown leaf operator", Expr{"tags": map[string]interface{}{"$regex": ".*"}}},
		{"in without list", Expr{"tags": map[string]interface{}{"$in": "db"}}},
		{"contains without string", Expr{"tags": map[string]interface{}{"$contains": 7}}},
		{"and without list", Expr{"$and": "nope"}},
		{"empty and", Expr{"$and": []interface{}{}}},
		{"two operators in one condition", Expr{"tags": map[string]interface{}{"$in": []interface{}{"a"}, "$contains": "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.expr)
			require.Error(t, err)
			assert.True(t, stderrors.IsValidation(err))
		})
	}
}

func TestSanitizeMetadata(t *testing.T) {
	out := SanitizeMetadata(map[string]interface{}{
		"item_type": "decision",
		"count":     3,
		"score":     1.5,
		"flag":      true,
		"nested":    map[string]interface{}{"drop": "me"},
		"list":      []string{"drop", "me"},
	})
	assert.Equal(t, map[string]interface{}{
		"item_type": "decision",
		"count":     3,
		"score":     1.5,
		"flag":      true,
	}, out)
}
