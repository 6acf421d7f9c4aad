package engine

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawValue_Variants(t *testing.T) {
	tests := []struct {
		name string
		json string
		kind Kind
		want []string
	}{
		{"string", `"→"`, KindString, []string{"→"}},
		{"char code", `955`, KindChar, []string{"λ"}},
		{"sequence of strings", `["→", "⇒"]`, KindSequence, []string{"→", "⇒"}},
		{"mixed sequence", `["→", 8658]`, KindSequence, []string{"→", "⇒"}},
		{"multi code point string", `"ẋ"`, KindString, []string{"ẋ"}},
		{"empty sequence", `[]`, KindSequence, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var v RawValue
			require.NoError(t, json.Unmarshal([]byte(tc.json), &v))
			assert.Equal(t, tc.kind, v.Kind)
			assert.Equal(t, tc.want, v.Strings())
		})
	}
}

func TestRawValue_Rejects(t *testing.T) {
	for _, in := range []string{`null`, `true`, `{"a": 1}`, `[["x"]]`, `1.5`, `-1`, `1114112`} {
		var v RawValue
		assert.Error(t, json.Unmarshal([]byte(in), &v), "input %s", in)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "char", KindChar.String())
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "sequence", KindSequence.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestParseDump(t *testing.T) {
	got, err := ParseDump(`{"\\to": ["→"], "\\a": ["a"], "\\x": ["x", "×"], "\\l": "λ", "\\G": 915}`, 500)
	require.NoError(t, err)

	want := map[string][]string{
		`\to`: {"→"},
		`\x`:  {"×"},
		`\l`:  {"λ"},
		`\G`:  {"Γ"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDump mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDump_Empty(t *testing.T) {
	got, err := ParseDump(`{}`, 500)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseDump_TrivialFilterIsExhaustive(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("{")
	for c := 0x20; c <= 0x7e; c++ {
		if c > 0x20 {
			sb.WriteString(",")
		}
		key, _ := json.Marshal(`\k` + string(rune(c)))
		val, _ := json.Marshal([]string{string(rune(c)), " "})
		sb.Write(key)
		sb.WriteString(":")
		sb.Write(val)
	}
	sb.WriteString("}")

	got, err := ParseDump(sb.String(), 500)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseDump_Malformed(t *testing.T) {
	tests := map[string]string{
		"warning text": "Loading agda-input...\nWarning: something",
		"array":        `["→"]`,
		"null":         `null`,
		"truncated":    `{"\\to": ["→"`,
		"trailing":     `{} {}`,
	}

	for name, out := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDump(out, 500)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedOutput))

			var mErr *MalformedOutputError
			require.True(t, errors.As(err, &mErr))
			assert.Equal(t, out, mErr.Preview)
		})
	}
}

func TestParseDump_MalformedPreviewIsBounded(t *testing.T) {
	out := strings.Repeat("λ", 800)
	_, err := ParseDump(out, 500)

	var mErr *MalformedOutputError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, 500, len([]rune(mErr.Preview)))
	assert.Contains(t, err.Error(), "first 500 chars")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "→λ", truncate("→λα", 2))
	assert.Equal(t, "abc", truncate("abc", 0))
}
