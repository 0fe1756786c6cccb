package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_MarshalJSON(t *testing.T) {
	cfg := Config{
		{Ref: "pkg.do_tallies", Params: Params{"ignore_invalid_votes": true}},
		{Ref: "pkg.sort"},
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `[["pkg.do_tallies",{"ignore_invalid_votes":true}],["pkg.sort",null]]`, string(data))
}

func TestConfig_HashStable(t *testing.T) {
	a := Config{{Ref: "pkg.a", Params: Params{"x": json.Number("1"), "y": "z"}}}
	b := Config{{Ref: "pkg.a", Params: Params{"y": "z", "x": json.Number("1")}}}
	c := Config{{Ref: "pkg.b"}}

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	hc, err := c.Hash()
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
	assert.NotEqual(t, ha, hc)
}

func TestConfig_Clone(t *testing.T) {
	orig := Config{{Ref: "pkg.a", Params: Params{"k": 1}}}
	cp := orig.Clone()
	cp[0].Params["k"] = 2
	cp[0].Ref = "pkg.b"

	assert.Equal(t, 1, orig[0].Params["k"])
	assert.Equal(t, "pkg.a", orig[0].Ref)
	assert.Nil(t, Config(nil).Clone())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Len(t, cfg, 2)
	assert.Equal(t, "agora_results.pipes.results.do_tallies", cfg[0].Ref)
	assert.Equal(t, "agora_results.pipes.sort.sort_non_iterative", cfg[1].Ref)
}
