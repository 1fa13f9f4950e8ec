package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError_Is(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"invalid", Invalid([]string{"a", "b"}), KindInvalid},
		{"duplicate", Duplicate("k"), KindDuplicate},
		{"not found", NotFound("k"), KindNotFound},
		{"unknown", Unknown("k"), KindNotFound},
		{"wrapped", fmt.Errorf("update: %w", Duplicate("k")), KindDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, ErrModelConfig))
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestInvalid_Message(t *testing.T) {
	err := Invalid([]string{"Missing configuration id", "Missing model name (name)"})
	assert.Equal(t, "Invalid TextModelConfig: Missing configuration id, Missing model name (name)", err.Error())
	assert.Len(t, err.Problems, 2)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Model x already exists", Duplicate("x").Error())
	assert.Equal(t, "Model x does not exist", NotFound("x").Error())
	assert.Equal(t, "Unknown model: x", Unknown("x").Error())
}

func TestKindOf_Other(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.False(t, errors.Is(errors.New("boom"), ErrModelConfig))
}

func TestWrapImportExport(t *testing.T) {
	cause := errors.New("storage down")
	err := WrapImportExport(cause, "models", "export failed")
	require.Error(t, err)

	var ie *ImportExportError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "models", ie.DataType)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[models] export failed: storage down", err.Error())

	assert.NoError(t, WrapImportExport(nil, "models", "x"))
}
