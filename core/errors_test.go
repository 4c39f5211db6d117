package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaggedError_PluginCode(t *testing.T) {
	cause := errors.New("boom")
	err := NewTaggedError(CodePluginErrorRequestWillFetch, Details{DetailThrownError: cause})

	assert.Equal(t, CodePluginErrorRequestWillFetch, err.Code())
	assert.Equal(t, "requestWillFetch extension failed: boom", err.Error())
	assert.Equal(t, err.Error(), err.Message())
	assert.Same(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestNewTaggedError_InvalidRequest(t *testing.T) {
	err := NewTaggedError(CodeInvalidRequest, Details{"url": ""})
	assert.Equal(t, `invalid request ""`, err.Error())
	assert.Nil(t, err.Unwrap())

	err = NewTaggedError(CodeInvalidRequest, Details{"url": "x", DetailThrownError: errors.New("missing url")})
	assert.Equal(t, `invalid request "x": missing url`, err.Error())
}

func TestNewTaggedError_UnknownCodeFallback(t *testing.T) {
	err := NewTaggedError("custom-code", Details{"b": 2, "a": 1})
	assert.Equal(t, "custom-code :: map[a:1 b:2]", err.Error())

	assert.Equal(t, "bare", NewTaggedError("bare", nil).Error())
}

func TestTaggedError_DetailsAreCloned(t *testing.T) {
	in := Details{"nested": map[string]any{"k": "v"}}
	err := NewTaggedError("x", in)

	in["nested"].(map[string]any)["k"] = "changed"
	assert.Equal(t, "v", err.Details()["nested"].(map[string]any)["k"])

	out := err.Details()
	out["extra"] = true
	_, ok := err.Details()["extra"]
	assert.False(t, ok)
}

func TestIsCode(t *testing.T) {
	err := NewTaggedError(CodePluginErrorRequestWillFetch, nil)
	wrapped := fmt.Errorf("fetch: %w", err)

	assert.True(t, IsCode(err, CodePluginErrorRequestWillFetch))
	assert.True(t, IsCode(wrapped, CodePluginErrorRequestWillFetch))
	assert.False(t, IsCode(wrapped, CodeInvalidRequest))
	assert.False(t, IsCode(errors.New("requestWillFetch extension failed"), CodePluginErrorRequestWillFetch))
	assert.False(t, IsCode(nil, CodeInvalidRequest))

	var te *TaggedError
	require.ErrorAs(t, wrapped, &te)
	assert.Same(t, err, te)
}

func TestTaggedError_NilReceiver(t *testing.T) {
	var err *TaggedError
	assert.Equal(t, "<nil>", err.Error())
	assert.Nil(t, err.Unwrap())
}
