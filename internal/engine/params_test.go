package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_Check(t *testing.T) {
	p := Params{"a": 1, "zz": true, "b": nil}

	require.NoError(t, p.Check("a", "b", "zz"))

	err := p.Check("a")
	require.Error(t, err)
	assert.Equal(t, "unexpected parameter(s): b, zz", err.Error())
}

func TestParams_Bool(t *testing.T) {
	p := Params{"yes": true, "bad": "true", "null": nil}

	v, err := p.Bool("yes", false)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = p.Bool("missing", true)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = p.Bool("null", true)
	require.NoError(t, err)
	assert.True(t, v)

	_, err = p.Bool("bad", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parameter "bad": expected bool`)
}

func TestParams_Int(t *testing.T) {
	p := Params{
		"json":  json.Number("3"),
		"yaml":  4,
		"float": 5.0,
		"frac":  5.5,
		"str":   "6",
		"big":   json.Number("1.5"),
		"huge":  1e20,
		"neg":   -1e19,
	}

	for key, want := range map[string]int64{"json": 3, "yaml": 4, "float": 5} {
		got, err := p.Int(key, 0)
		require.NoError(t, err, key)
		assert.Equal(t, want, got, key)
	}

	def, err := p.Int("missing", 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), def)

	for _, key := range []string{"frac", "str", "big", "huge", "neg"} {
		_, err := p.Int(key, 0)
		assert.Error(t, err, key)
	}
}

func TestParams_Ints(t *testing.T) {
	p := Params{"list": []any{json.Number("0"), 2}, "bad": []any{"x"}, "scalar": 1}

	vals, present, err := p.Ints("list")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, []int64{0, 2}, vals)

	_, present, err = p.Ints("missing")
	require.NoError(t, err)
	assert.False(t, present)

	_, _, err = p.Ints("bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parameter "bad"[0]`)

	_, _, err = p.Ints("scalar")
	require.Error(t, err)
}

func TestParams_String(t *testing.T) {
	p := Params{"s": "v", "n": 1}

	s, err := p.String("s", "")
	require.NoError(t, err)
	assert.Equal(t, "v", s)

	s, err = p.String("missing", "def")
	require.NoError(t, err)
	assert.Equal(t, "def", s)

	_, err = p.String("n", "")
	require.Error(t, err)
}
