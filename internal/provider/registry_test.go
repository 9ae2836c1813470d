package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueberrycongee/copydesk/internal/provider"
	"github.com/blueberrycongee/copydesk/internal/provider/providertest"
)

func TestRegistry_New(t *testing.T) {
	fake := providertest.NewFake("fake", "m1")
	r := provider.NewRegistry()
	r.RegisterFactory("fake", fake.Factory())

	h, err := r.New(provider.Settings{Vendor: "fake", Model: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "fake", h.Vendor())
	assert.True(t, r.Has("fake"))
	assert.Equal(t, []string{"fake"}, r.Vendors())

	_, err = r.New(provider.Settings{Vendor: "unknown", Model: "m1"})
	assert.ErrorContains(t, err, "unknown")

	_, err = r.New(provider.Settings{Vendor: "fake"})
	assert.ErrorContains(t, err, "model is required")
}

func TestSystemWithSchema(t *testing.T) {
	s, err := provider.SystemWithSchema(&provider.Request{System: "base"})
	require.NoError(t, err)
	assert.Equal(t, "base", s)

	s, err = provider.SystemWithSchema(&provider.Request{System: "base", Schema: map[string]any{"type": "object"}})
	require.NoError(t, err)
	assert.Contains(t, s, "base")
	assert.Contains(t, s, `{"type":"object"}`)
}
