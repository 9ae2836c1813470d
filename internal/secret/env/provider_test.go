package env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueberrycongee/copydesk/internal/secret"
)

func TestProvider_Get(t *testing.T) {
	t.Setenv("COPYDESK_TEST_KEY", "sk-from-env")
	t.Setenv("COPYDESK_BLANK_KEY", "  ")

	p := New()
	v, err := p.Get(context.Background(), "COPYDESK_TEST_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", v)

	_, err = p.Get(context.Background(), "COPYDESK_BLANK_KEY")
	assert.ErrorIs(t, err, secret.ErrNotFound)

	_, err = p.Get(context.Background(), "COPYDESK_UNSET_KEY_FOR_TEST")
	assert.ErrorIs(t, err, secret.ErrNotFound)
	assert.NoError(t, p.Close())
}
