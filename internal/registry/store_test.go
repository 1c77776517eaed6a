package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acikit/go-aci-validator/internal/domain"
)

func TestStore_RegisterAndGet(t *testing.T) {
	store := NewStore()
	store.Register("content", domain.ServerDescriptor{Host: "example.com", Port: 9000})

	entry, ok := store.Get("content")
	require.True(t, ok)
	assert.Equal(t, "content", entry.Name)
	assert.Equal(t, "example.com", entry.Descriptor.Host)
	assert.Nil(t, entry.Outcome)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestStore_ListSortedByName(t *testing.T) {
	store := NewStore()
	store.Register("view", domain.ServerDescriptor{Port: 9080})
	store.Register("agentstore", domain.ServerDescriptor{Port: 9050})
	store.Register("content", domain.ServerDescriptor{Port: 9000})

	entries := store.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "agentstore", entries[0].Name)
	assert.Equal(t, "content", entries[1].Name)
	assert.Equal(t, "view", entries[2].Name)

	assert.Equal(t, []string{"agentstore", "content", "view"}, store.Names())
}

func TestStore_SetOutcome(t *testing.T) {
	store := NewStore()
	store.Register("content", domain.ServerDescriptor{Host: "example.com", Port: 9000})

	details := domain.ServerDescriptor{Host: "example.com", Port: 9000, ServicePort: 9002}
	require.NoError(t, store.SetOutcome("content", domain.ValidOutcome(), &details))

	entry, ok := store.Get("content")
	require.True(t, ok)
	require.NotNil(t, entry.Outcome)
	assert.True(t, entry.Outcome.Valid)
	require.NotNil(t, entry.Details)
	assert.Equal(t, 9002, entry.Details.ServicePort)
	assert.False(t, entry.ValidatedAt.IsZero())

	assert.Error(t, store.SetOutcome("missing", domain.ValidOutcome(), nil))
}

func TestStore_ReRegisterClearsValidationState(t *testing.T) {
	store := NewStore()
	store.Register("content", domain.ServerDescriptor{Host: "example.com", Port: 9000})
	require.NoError(t, store.SetOutcome("content", domain.InvalidOutcome(domain.ValidationConnectionError), nil))

	store.Register("content", domain.ServerDescriptor{Host: "other.example.com", Port: 9100})

	entry, _ := store.Get("content")
	assert.Equal(t, "other.example.com", entry.Descriptor.Host)
	assert.Nil(t, entry.Outcome)
	assert.True(t, entry.ValidatedAt.IsZero())
}

func TestSeed(t *testing.T) {
	store := NewStore()
	defaults := &domain.ServerDescriptor{Host: "idol.example.com", Protocol: domain.ProtocolHTTPS}

	Seed(store, map[string]domain.ServerDescriptor{
		"content": {Port: 9000},
		"view":    {Host: "view.example.com", Port: 9080},
	}, defaults)

	assert.Equal(t, 2, store.Len())

	content, _ := store.Get("content")
	assert.Equal(t, "idol.example.com", content.Descriptor.Host)
	assert.Equal(t, domain.ProtocolHTTPS, content.Descriptor.Protocol)

	// explicit host wins over the default
	view, _ := store.Get("view")
	assert.Equal(t, "view.example.com", view.Descriptor.Host)
}
