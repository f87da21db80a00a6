package lease

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	lease *Lease
}

func (f *fakeStore) AcquireLease(identity string, ttl time.Duration, now time.Time) (Outcome, error) {
	if f.lease == nil {
		f.lease = &Lease{Identity: identity, IssuedAt: now, ExpiresAt: now.Add(ttl)}
		return Outcome{Kind: Acquired, Lease: *f.lease}, nil
	}
	if f.lease.Identity == identity {
		f.lease.ExpiresAt = now.Add(ttl)
		return Outcome{Kind: Held, Lease: *f.lease}, nil
	}
	if f.lease.Expired(now) {
		prev := f.lease.Identity
		f.lease = &Lease{Identity: identity, IssuedAt: now, ExpiresAt: now.Add(ttl)}
		return Outcome{Kind: Acquired, PrevIdentity: prev, Lease: *f.lease}, nil
	}
	return Outcome{Kind: Denied, Holder: f.lease.Identity, Lease: *f.lease}, nil
}

func TestManager_AcquireThenHeld(t *testing.T) {
	now := time.Unix(1000, 0)
	m := New(&fakeStore{})

	out, err := m.AcquireOrRenew("node-a", 30*time.Second, now)
	require.NoError(t, err)
	require.Equal(t, Acquired, out.Kind)

	out, err = m.AcquireOrRenew("node-a", 30*time.Second, now.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, Held, out.Kind)
}

func TestManager_DeniedWhileLeaseLive(t *testing.T) {
	now := time.Unix(1000, 0)
	s := &fakeStore{}
	m := New(s)

	_, err := m.AcquireOrRenew("node-a", 30*time.Second, now)
	require.NoError(t, err)

	out, err := m.AcquireOrRenew("node-b", 30*time.Second, now.Add(5*time.Second))
	require.NoError(t, err)
	require.Equal(t, Denied, out.Kind)
	require.Equal(t, "node-a", out.Holder)
}

func TestManager_TakeoverAfterExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	s := &fakeStore{}
	m := New(s)

	_, err := m.AcquireOrRenew("node-a", 10*time.Second, now)
	require.NoError(t, err)

	out, err := m.AcquireOrRenew("node-b", 10*time.Second, now.Add(11*time.Second))
	require.NoError(t, err)
	require.Equal(t, Acquired, out.Kind)
	require.Equal(t, "node-a", out.PrevIdentity)
}

func TestLease_Expired(t *testing.T) {
	l := &Lease{ExpiresAt: time.Unix(100, 0)}
	require.False(t, l.Expired(time.Unix(99, 0)))
	require.True(t, l.Expired(time.Unix(101, 0)))
}
