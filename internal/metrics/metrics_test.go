package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSnapshot struct {
	ss, clients, files, locks int
}

func (f fakeSnapshot) StorageServerCount() int { return f.ss }
func (f fakeSnapshot) ClientCount() int        { return f.clients }
func (f fakeSnapshot) FileCount() int          { return f.files }
func (f fakeSnapshot) LockCount() int          { return f.locks }

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("VIEW", "OK", 5*time.Millisecond)

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("VIEW", "OK")); got != 1 {
		t.Errorf("Requests counter = %v, want 1", got)
	}
}

func TestSampler_RefreshesGauges(t *testing.T) {
	m := New()
	snap := fakeSnapshot{ss: 2, clients: 3, files: 4, locks: 1}
	s := NewSampler(m, snap, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	cancel()

	if got := testutil.ToFloat64(m.StorageServers); got != 2 {
		t.Errorf("StorageServers = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Files); got != 4 {
		t.Errorf("Files = %v, want 4", got)
	}
}
