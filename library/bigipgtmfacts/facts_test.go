package bigipgtmfacts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infraglue.org/bigip"
	"infraglue.org/failure"
)

type fakeAPI struct {
	pools   map[string]string
	wideIPs map[string]bool
	err     error
}

func (f *fakeAPI) Pools(context.Context) ([]string, error) { return []string{"/Common/web"}, f.err }

func (f *fakeAPI) PoolExists(_ context.Context, pool string) (failure.Presence, error) {
	if f.err != nil {
		return failure.Unknown, f.err
	}
	if _, ok := f.pools[pool]; ok {
		return failure.Found, nil
	}
	return failure.NotPresent, nil
}

func (f *fakeAPI) PoolState(_ context.Context, pool string) (string, error) {
	return f.pools[pool], nil
}

func (f *fakeAPI) PoolStatistics(context.Context, string) (bigip.Statistics, error) {
	return bigip.Statistics{"preferred": 3.0}, nil
}

func (f *fakeAPI) PoolStatus(context.Context, string) (bigip.ObjectStatus, error) {
	return bigip.ObjectStatus{AvailabilityStatus: "available"}, nil
}

func (f *fakeAPI) PoolVirtualServer(context.Context, string) (bigip.Member, error) {
	return bigip.Member{Name: "vs_b", Server: "dc2"}, nil
}

func (f *fakeAPI) WideIPs(context.Context) ([]string, error) {
	return []string{"/Common/www.example.com"}, nil
}

func (f *fakeAPI) WideIPExists(_ context.Context, w string) (failure.Presence, error) {
	if f.wideIPs[w] {
		return failure.Found, nil
	}
	return failure.NotPresent, nil
}

func (f *fakeAPI) WideIPLBMethod(context.Context, string) (string, error) { return "round_robin", nil }

func (f *fakeAPI) WideIPPools(context.Context, string) ([]bigip.WideIPPool, error) {
	return []bigip.WideIPPool{{PoolName: "/Common/web", Order: 0, Ratio: 1}}, nil
}

func (f *fakeAPI) VirtualServers(context.Context) ([]bigip.Member, error) {
	return []bigip.Member{{Name: "vs_a", Server: "dc1"}}, nil
}

func (f *fakeAPI) VirtualServerStatus(context.Context, bigip.Member) (bigip.ObjectStatus, error) {
	return bigip.ObjectStatus{AvailabilityStatus: "offline"}, nil
}

func newFake() *fakeAPI {
	return &fakeAPI{
		pools:   map[string]string{"/Common/web": "enabled"},
		wideIPs: map[string]bool{"www.example.com": true},
	}
}

func TestInvalidInclude(t *testing.T) {
	_, err := Run(context.Background(), newFake(), Args{Include: []string{"Pool", "nodes"}})
	require.Error(t, err)
	assert.Equal(t, "value of include must be one or more of: pool,wide_ip,virtual_server, got: pool,nodes", err.Error())
}

func TestPoolFacts(t *testing.T) {
	r, err := Run(context.Background(), newFake(), Args{Include: []string{"POOL"}, Pool: "web", Partition: "Common"})
	require.NoError(t, err)
	assert.Equal(t, "ENABLED", r["state"])
	assert.Equal(t, bigip.Statistics{"preferred": 3.0}, r["statistics"])
	assert.Equal(t, bigip.ObjectStatus{AvailabilityStatus: "available"}, r["status"])

	r, err = Run(context.Background(), newFake(), Args{Include: []string{"pool"}, Partition: "Common"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/Common/web"}, r["pools"])
}

func TestMissing(t *testing.T) {
	_, err := Run(context.Background(), newFake(), Args{Include: []string{"pool"}, Pool: "db", Partition: "Common"})
	require.Error(t, err)
	assert.Equal(t, "pool db does not exist", err.Error())

	_, err = Run(context.Background(), newFake(), Args{Include: []string{"wide_ip"}, WideIP: "nope.example.com"})
	require.Error(t, err)
	assert.Equal(t, "wide ip nope.example.com does not exist", err.Error())
}

func TestVendorError(t *testing.T) {
	f := newFake()
	f.err = failure.Transportf("GET /mgmt/tm/gtm/pool/a/~Common~web", "401: Authorization failed")
	_, err := Run(context.Background(), f, Args{Include: []string{"pool"}, Pool: "web", Partition: "Common"})
	require.Error(t, err)
	assert.Equal(t, "received exception: GET /mgmt/tm/gtm/pool/a/~Common~web: 401: Authorization failed", err.Error())
}

func TestWideIPAndVirtualServerFacts(t *testing.T) {
	r, err := Run(context.Background(), newFake(), Args{Include: []string{"wide_ip"}, WideIP: "www.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "round_robin", r["lb_method"])
	assert.Equal(t, []bigip.WideIPPool{{PoolName: "/Common/web", Order: 0, Ratio: 1}}, r["pools"])

	r, err = Run(context.Background(), newFake(), Args{Include: []string{"wide_ip", "virtual_server"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"/Common/www.example.com"}, r["wide_ips"])
	assert.Equal(t, []bigip.Member{{Name: "vs_a", Server: "dc1"}}, r["virtual_servers"])

	r, err = Run(context.Background(), newFake(), Args{Include: []string{"virtual_server"}, Pool: "web", Partition: "Common"})
	require.NoError(t, err)
	assert.Equal(t, bigip.Member{Name: "vs_b", Server: "dc2"}, r["virtual_server"])

	r, err = Run(context.Background(), newFake(), Args{Include: []string{"virtual_server"}, VirtualServerName: "vs_a", VirtualServerServer: "dc1"})
	require.NoError(t, err)
	assert.Equal(t, bigip.ObjectStatus{AvailabilityStatus: "offline"}, r["status"])
}
