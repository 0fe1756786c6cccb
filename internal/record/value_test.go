package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Primitives(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"string", `"hello"`, String("hello")},
		{"int", `42`, Int(42)},
		{"negative int", `-7`, Int(-7)},
		{"bool", `true`, Bool(true)},
		{"null", `null`, Null{}},
		{"array", `[1,"a"]`, Array{Int(1), String("a")}},
		{"object", `{"a":1}`, Object{"a": Int(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_RejectsFloats(t *testing.T) {
	for _, input := range []string{`1.5`, `[1e3]`, `{"a":2.0}`} {
		_, err := Decode([]byte(input))
		require.Error(t, err, input)
		assert.Contains(t, err.Error(), "floats are not allowed")
	}
}

func TestDecode_RejectsTrailingData(t *testing.T) {
	_, err := Decode([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)
}

func TestObject_MarshalJSONSortsKeys(t *testing.T) {
	obj := Object{"b": Int(2), "a": Array{Bool(false), Null{}}, "c": String("x")}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[false,null],"b":2,"c":"x"}`, string(data))
}

func TestObject_UnmarshalJSON(t *testing.T) {
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(`{"n":3,"s":"v"}`), &obj))
	assert.Equal(t, Object{"n": Int(3), "s": String("v")}, obj)

	err := json.Unmarshal([]byte(`[1]`), &obj)
	require.Error(t, err)
}

func TestClone_IsDeep(t *testing.T) {
	orig := Object{"list": Array{Object{"n": Int(1)}}}

	cp := Clone(orig).(Object)
	cp["list"].(Array)[0].(Object)["n"] = Int(99)

	assert.Equal(t, Int(1), orig["list"].(Array)[0].(Object)["n"])
}

func TestFromGo_YAMLShapes(t *testing.T) {
	got, err := FromGo(map[string]any{"n": 3, "list": []any{"a", int64(2)}, "none": nil})
	require.NoError(t, err)
	assert.Equal(t, Object{"n": Int(3), "list": Array{String("a"), Int(2)}, "none": Null{}}, got)

	_, err = FromGo(map[string]any{"f": 1.5})
	require.Error(t, err)
}

func TestAccessors(t *testing.T) {
	obj := Object{
		"count": Int(4),
		"title": String("Q"),
		"list":  Array{Object{"id": Int(0)}},
		"sub":   Object{},
	}

	n, err := obj.Int("count")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	s, err := obj.String("title")
	require.NoError(t, err)
	assert.Equal(t, "Q", s)

	def, err := obj.IntOr("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), def)

	objs, err := obj["list"].(Array).Objects()
	require.NoError(t, err)
	require.Len(t, objs, 1)

	_, err = obj.Int("title")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "title": expected int, got string`)

	_, err = obj.Array("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing field "missing"`)

	_, err = obj.Object("sub")
	require.NoError(t, err)
}
