package credential

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
)

type countingStore struct {
	*MemoryStore
	calls atomic.Int32
	err   error
}

func (s *countingStore) GetWorkspaceCredential(ctx context.Context, workspaceID string, provider Provider) (*Credential, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.MemoryStore.GetWorkspaceCredential(ctx, workspaceID, provider)
}

func TestResolver_WorkspaceKeyShadowsDefault(t *testing.T) {
	store := NewMemoryStore()
	store.Put("ws-a", PrimaryLLM, "sk-workspace-aaaa", true)

	r := NewResolver(store, Defaults{PrimaryLLM: "sk-global-zzzz"}, ResolverOptions{})

	cred, err := r.Resolve(context.Background(), PrimaryLLM, "ws-a")
	require.NoError(t, err)
	assert.Equal(t, "sk-workspace-aaaa", cred.Secret)
	assert.Equal(t, "ws-a", cred.Scope)
	assert.Equal(t, "…aaaa", cred.Hint)
	assert.False(t, cred.IsGlobal())
}

func TestResolver_FallsBackToDefault(t *testing.T) {
	store := NewMemoryStore()
	store.Put("ws-a", PrimaryLLM, "sk-workspace-aaaa", true)

	r := NewResolver(store, Defaults{PrimaryLLM: "sk-global-zzzz"}, ResolverOptions{})

	cred, err := r.Resolve(context.Background(), PrimaryLLM, "ws-b")
	require.NoError(t, err)
	assert.True(t, cred.IsGlobal())
	assert.Equal(t, "sk-global-zzzz", cred.Secret)

	cred, err = r.Resolve(context.Background(), PrimaryLLM, "")
	require.NoError(t, err)
	assert.True(t, cred.IsGlobal())
}

func TestResolver_InvalidWorkspaceKeyIgnored(t *testing.T) {
	store := NewMemoryStore()
	store.Put("ws-a", ReviewLLM, "sk-revoked-1111", false)

	r := NewResolver(store, Defaults{ReviewLLM: "sk-global-rrrr"}, ResolverOptions{})

	cred, err := r.Resolve(context.Background(), ReviewLLM, "ws-a")
	require.NoError(t, err)
	assert.True(t, cred.IsGlobal())
}

func TestResolver_NoKeyConfigured(t *testing.T) {
	r := NewResolver(NewMemoryStore(), Defaults{PrimaryLLM: "sk-global"}, ResolverOptions{})

	_, err := r.Resolve(context.Background(), FallbackLLM, "ws-a")
	require.Error(t, err)
	assert.True(t, llmerrors.IsKind(err, llmerrors.KindNoKeyConfigured))
	assert.Contains(t, err.Error(), "fallback_llm")
	assert.Contains(t, err.Error(), "providers.fallback_llm.api_key")
}

func TestResolver_EmptyDefaultIsNotConfigured(t *testing.T) {
	r := NewResolver(nil, Defaults{PrimaryLLM: ""}, ResolverOptions{})
	assert.False(t, r.HasDefault(PrimaryLLM))

	_, err := r.Resolve(context.Background(), PrimaryLLM, "")
	assert.True(t, llmerrors.IsKind(err, llmerrors.KindNoKeyConfigured))
}

func TestResolver_CachesPerWorkspace(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	store.Put("ws-a", PrimaryLLM, "sk-a-aaaa", true)
	store.Put("ws-b", PrimaryLLM, "sk-b-bbbb", true)

	r := NewResolver(store, nil, ResolverOptions{})
	ctx := context.Background()

	a1, err := r.Resolve(ctx, PrimaryLLM, "ws-a")
	require.NoError(t, err)
	a2, err := r.Resolve(ctx, PrimaryLLM, "ws-a")
	require.NoError(t, err)
	b, err := r.Resolve(ctx, PrimaryLLM, "ws-b")
	require.NoError(t, err)

	assert.Equal(t, "sk-a-aaaa", a1.Secret)
	assert.Equal(t, "sk-a-aaaa", a2.Secret)
	assert.Equal(t, "sk-b-bbbb", b.Secret)
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestResolver_Invalidate(t *testing.T) {
	store := NewMemoryStore()
	store.Put("ws-a", PrimaryLLM, "sk-old-0000", true)

	r := NewResolver(store, nil, ResolverOptions{})
	ctx := context.Background()

	cred, err := r.Resolve(ctx, PrimaryLLM, "ws-a")
	require.NoError(t, err)
	assert.Equal(t, "sk-old-0000", cred.Secret)

	store.Put("ws-a", PrimaryLLM, "sk-new-9999", true)
	cred, err = r.Resolve(ctx, PrimaryLLM, "ws-a")
	require.NoError(t, err)
	assert.Equal(t, "sk-old-0000", cred.Secret, "cached until invalidated")

	r.Invalidate("ws-a", PrimaryLLM)
	cred, err = r.Resolve(ctx, PrimaryLLM, "ws-a")
	require.NoError(t, err)
	assert.Equal(t, "sk-new-9999", cred.Secret)
}

func TestResolver_StoreErrorIsInternal(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore(), err: errors.New("connection refused")}
	r := NewResolver(store, Defaults{PrimaryLLM: "sk-global"}, ResolverOptions{})

	_, err := r.Resolve(context.Background(), PrimaryLLM, "ws-a")
	require.Error(t, err)
	assert.True(t, llmerrors.IsKind(err, llmerrors.KindInternal))
}

func TestHint(t *testing.T) {
	assert.Equal(t, "", Hint(""))
	assert.Equal(t, "…", Hint("abcd"))
	assert.Equal(t, "…cdef", Hint("sk-abcdef"))
}

func TestCredentialStringOmitsSecret(t *testing.T) {
	c := &Credential{Provider: PrimaryLLM, Scope: "ws-a", Secret: "sk-very-secret-1234", Hint: Hint("sk-very-secret-1234")}
	assert.NotContains(t, c.String(), "very-secret")
	assert.Contains(t, c.String(), "…1234")
}
