package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceHeader(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "numeric page", raw: `{"source":"policy.pdf","page":2,"context_text":"x"}`, want: "policy.pdf (Page 2)"},
		{name: "string page", raw: `{"source":"guide.docx","page":"iv"}`, want: "guide.docx (Page iv)"},
		{name: "zero page is a real page", raw: `{"source":"a.pdf","page":0}`, want: "a.pdf (Page 0)"},
		{name: "missing fields", raw: `{"context_text":"x"}`, want: "Unknown Source (Page ?)"},
		{name: "null fields", raw: `{"source":null,"page":null}`, want: "Unknown Source (Page ?)"},
		{name: "blank fields", raw: `{"source":"  ","page":""}`, want: "Unknown Source (Page ?)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref Reference
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ref))
			assert.Equal(t, tt.want, ref.Header())
		})
	}
}

func TestPageRejectsObjects(t *testing.T) {
	var ref Reference
	err := json.Unmarshal([]byte(`{"page":{"n":1}}`), &ref)
	assert.Error(t, err)
}

func TestPageMarshal(t *testing.T) {
	out, err := json.Marshal(Reference{Source: StringPtr("a.pdf"), Page: PageNumber(3), Text: "t"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"a.pdf","page":3,"context_text":"t"}`, string(out))

	out, err = json.Marshal(Reference{Page: PageOf("iv")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":"iv","context_text":""}`, string(out))
}

func TestPageKeepsWireForm(t *testing.T) {
	for _, raw := range []string{
		`{"page":2,"context_text":""}`,
		`{"page":2.5,"context_text":""}`,
		`{"page":"2","context_text":""}`,
		`{"page":"NaN","context_text":""}`,
		`{"page":"Inf","context_text":""}`,
		`{"page":null,"context_text":""}`,
	} {
		var ref Reference
		require.NoError(t, json.Unmarshal([]byte(raw), &ref), raw)
		out, err := json.Marshal(ref)
		require.NoError(t, err, raw)
		assert.JSONEq(t, raw, string(out))
	}
}
