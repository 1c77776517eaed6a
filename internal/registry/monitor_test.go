package registry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acikit/go-aci-validator/internal/aci"
	"github.com/acikit/go-aci-validator/internal/domain"
	"github.com/acikit/go-aci-validator/internal/validator"
)

// fakeACI serves a fixed healthy coordinator on port 9000 with a service
// port at 9002. Everything else is unreachable.
type fakeACI struct{}

func (fakeACI) Execute(_ context.Context, addr domain.Address, action aci.Action, _ aci.Parameters) ([]byte, error) {
	switch {
	case addr.Port == 9000 && action == aci.ActionGetVersion:
		return []byte(`<autnresponse><response>SUCCESS</response><responsedata><producttypecsv>SERVICECOORDINATOR</producttypecsv></responsedata></autnresponse>`), nil
	case addr.Port == 9000 && action == aci.ActionGetChildren:
		return []byte(`<autnresponse><response>SUCCESS</response><responsedata><port>9000</port><serviceport>9002</serviceport></responsedata></autnresponse>`), nil
	case addr.Port == 9002 && action == aci.ActionGetStatus:
		return []byte(`<autnresponse><response>SUCCESS</response><responsedata><aciport>9000</aciport><serviceport>9002</serviceport></responsedata></autnresponse>`), nil
	}
	return nil, fmt.Errorf("connection refused: %s:%d", addr.Host, addr.Port)
}

func newTestMonitor(store *Store) *Monitor {
	v := validator.New(fakeACI{}, nil, zap.NewNop())
	return NewMonitor(store, v, time.Minute, 5*time.Second, zap.NewNop())
}

func coordinatorDescriptor() domain.ServerDescriptor {
	return domain.ServerDescriptor{
		Host:         "idol.example.com",
		Port:         9000,
		ProductTypes: []domain.ProductType{domain.ProductTypeServiceCoordinator},
	}
}

func TestMonitor_ValidateServer(t *testing.T) {
	store := NewStore()
	store.Register("coordinator", coordinatorDescriptor())

	monitor := newTestMonitor(store)

	entry, err := monitor.ValidateServer(context.Background(), "coordinator")
	require.NoError(t, err)

	require.NotNil(t, entry.Outcome)
	assert.True(t, entry.Outcome.Valid)
	require.NotNil(t, entry.Details)
	assert.Equal(t, 9002, entry.Details.ServicePort)
	assert.Equal(t, domain.ProtocolHTTP, entry.Details.ServiceProtocol)
}

func TestMonitor_ValidateServer_Unknown(t *testing.T) {
	monitor := newTestMonitor(NewStore())

	_, err := monitor.ValidateServer(context.Background(), "nope")
	assert.Error(t, err)
}

func TestMonitor_RunOnce(t *testing.T) {
	store := NewStore()
	store.Register("coordinator", coordinatorDescriptor())
	store.Register("unreachable", domain.ServerDescriptor{
		Host:         "down.example.com",
		Port:         7000,
		ProductTypes: []domain.ProductType{domain.ProductTypeAXE},
	})

	monitor := newTestMonitor(store)
	monitor.RunOnce(context.Background())

	good, _ := store.Get("coordinator")
	require.NotNil(t, good.Outcome)
	assert.True(t, good.Outcome.Valid)

	bad, _ := store.Get("unreachable")
	require.NotNil(t, bad.Outcome)
	assert.False(t, bad.Outcome.Valid)
	assert.Equal(t, domain.ValidationConnectionError, bad.Outcome.Reason)
}

func TestMonitor_StartStop(t *testing.T) {
	store := NewStore()
	store.Register("coordinator", coordinatorDescriptor())

	monitor := newTestMonitor(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor.Start(ctx)
	defer monitor.Stop()

	// Start performs an initial pass synchronously
	entry, _ := store.Get("coordinator")
	require.NotNil(t, entry.Outcome)
	assert.True(t, entry.Outcome.Valid)
}
