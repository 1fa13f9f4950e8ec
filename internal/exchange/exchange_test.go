package exchange

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmconf/internal/catalog"
	"llmconf/internal/models"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in       string
		expected Format
		wantErr  bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"toml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("models.YML"))
	assert.Equal(t, FormatYAML, FormatFromPath("/tmp/export.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("models.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("models"))
}

func TestRoundTrip(t *testing.T) {
	def, ok := catalog.Default("anthropic")
	require.True(t, ok)
	def.ParamOverrides = map[string]any{"temperature": 0.4}
	cfgs := []models.TextModelConfig{def}

	want, err := json.Marshal(cfgs)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, format, cfgs))

			got, err := Decode(buf.Bytes(), format)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(got))
		})
	}
}

func TestEncode_YAMLUsesJSONNames(t *testing.T) {
	def, ok := catalog.Default("openai")
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatYAML, []models.TextModelConfig{def}))
	assert.Contains(t, buf.String(), "providerMeta:")
	assert.Contains(t, buf.String(), "connectionConfig:")
}

func TestEncode_NilIsEmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatJSON, nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte("{"), FormatJSON)
	assert.Error(t, err)

	_, err = Decode([]byte("a: [1"), FormatYAML)
	assert.Error(t, err)

	_, err = Decode([]byte("[]"), Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
