package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceName(t *testing.T) {
	assert.Equal(t, "_mariner._tcp.local.", ServiceName("", ""))
	assert.Equal(t, "_printer._tcp.lan.", ServiceName("_printer._tcp", "lan"))
}

func TestServiceInfo_URL(t *testing.T) {
	assert.Equal(t, "http://192.168.1.20:5000/", ServiceInfo{Addr: net.ParseIP("192.168.1.20"), Port: 5000}.URL())
	assert.Equal(t, "http://[fe80::1]:5000/", ServiceInfo{Addr: net.ParseIP("fe80::1"), Port: 5000}.URL())
}

// fakeAdapter replays discovery results.
type fakeAdapter struct {
	results []DiscoveryResult
}

func (f *fakeAdapter) Announce(ctx context.Context, _ ServiceInfo) error {
	<-ctx.Done()
	return nil
}

func (f *fakeAdapter) Discover(ctx context.Context, _ string) <-chan DiscoveryResult {
	out := make(chan DiscoveryResult)
	go func() {
		defer close(out)
		for _, r := range f.results {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out
}

func TestBrowse_ReturnsLastSnapshot(t *testing.T) {
	mars := ServiceInfo{Name: "mars", Port: 5000}
	saturn := ServiceInfo{Name: "saturn", Port: 5000}
	adapter := &fakeAdapter{results: []DiscoveryResult{
		{Services: []ServiceInfo{mars}},
		{Services: []ServiceInfo{mars, saturn}},
	}}

	services, err := Browse(context.Background(), adapter, ServiceName("", ""), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []ServiceInfo{mars, saturn}, services)
}

func TestBrowse_StopsOnError(t *testing.T) {
	boom := errors.New("no multicast interface")
	adapter := &fakeAdapter{results: []DiscoveryResult{{Error: boom}}}

	_, err := Browse(context.Background(), adapter, ServiceName("", ""), time.Second)
	assert.ErrorIs(t, err, boom)
}

func TestMDNSAdapter_AnnounceAndDiscover(t *testing.T) {
	// mDNS needs a multicast capable network
	if testing.Short() {
		t.Skip("Skipping mDNS test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	adapter := &MDNSAdapter{}

	serviceInfo := ServiceInfo{
		Name:   "test-printer",
		Type:   "_mariner-test._tcp",
		Domain: "local",
		Port:   5000,
	}

	go func() {
		_ = adapter.Announce(ctx, serviceInfo)
	}()
	time.Sleep(300 * time.Millisecond)

	queryCtx, queryCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer queryCancel()

	result := <-adapter.Discover(queryCtx, ServiceName(serviceInfo.Type, serviceInfo.Domain))
	require.NoError(t, result.Error)
	require.NotEmpty(t, result.Services)

	found := result.Services[0]
	assert.Equal(t, serviceInfo.Name, found.Name)
	assert.Equal(t, serviceInfo.Type, found.Type)
	assert.Equal(t, serviceInfo.Domain, found.Domain)
	assert.Equal(t, serviceInfo.Port, found.Port)
}
