package state

import (
	"errors"
	"testing"

	"github.com/returnloop/kiosk/internal/api"
)

func TestUpdateReplacesDataOnSuccess(t *testing.T) {
	store := &Store{}
	requests := []api.ReturnRequest{
		{ID: 1, Barcode: "BC-1", Status: api.StatusPending},
		{ID: 2, Barcode: "BC-2", Status: api.StatusApproved},
	}
	stats := &api.Statistics{TotalRequests: 2, Pending: 1, Approved: 1}

	store.Update(requests, stats, nil)

	snap := store.Snapshot()
	if len(snap.Requests) != 2 {
		t.Fatalf("Requests = %d items, want 2", len(snap.Requests))
	}
	if snap.Stats == nil || snap.Stats.TotalRequests != 2 {
		t.Fatalf("Stats = %+v, want total 2", snap.Stats)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}
	if snap.LastUpdated.IsZero() {
		t.Fatal("LastUpdated not set after Update")
	}
}

func TestUpdateKeepsDataOnError(t *testing.T) {
	store := &Store{}
	store.Update([]api.ReturnRequest{{ID: 1, Barcode: "BC-1"}}, nil, nil)

	pollErr := errors.New("connection refused")
	store.Update(nil, nil, pollErr)

	snap := store.Snapshot()
	if len(snap.Requests) != 1 {
		t.Fatalf("Requests = %d items after failed poll, want previous 1", len(snap.Requests))
	}
	if snap.LastError == nil {
		t.Fatal("LastError = nil after failed poll, want recorded error")
	}
	if snap.ConsecutiveFailures != 1 {
		t.Fatalf("ConsecutiveFailures = %d, want 1", snap.ConsecutiveFailures)
	}
}

func TestIsOfflineAfterConsecutiveFailures(t *testing.T) {
	store := &Store{}
	pollErr := errors.New("timeout")

	store.Update(nil, nil, pollErr)
	if store.Snapshot().IsOffline() {
		t.Fatal("IsOffline = true after one failure, want false")
	}

	store.Update(nil, nil, pollErr)
	if !store.Snapshot().IsOffline() {
		t.Fatal("IsOffline = false after two failures, want true")
	}

	store.Update(nil, nil, nil)
	if store.Snapshot().IsOffline() {
		t.Fatal("IsOffline = true after successful poll, want false")
	}
}

func TestSnapshotReturnsDefensiveCopies(t *testing.T) {
	store := &Store{}
	store.Update([]api.ReturnRequest{{ID: 1, Barcode: "BC-1"}}, &api.Statistics{TotalRequests: 1}, nil)

	snap := store.Snapshot()
	snap.Requests[0].Barcode = "mutated"
	snap.Stats.TotalRequests = 99

	fresh := store.Snapshot()
	if fresh.Requests[0].Barcode != "BC-1" {
		t.Fatalf("Barcode = %q after external mutation, want BC-1", fresh.Requests[0].Barcode)
	}
	if fresh.Stats.TotalRequests != 1 {
		t.Fatalf("TotalRequests = %d after external mutation, want 1", fresh.Stats.TotalRequests)
	}
}

func TestProfileAndReset(t *testing.T) {
	store := &Store{}
	store.SetProfile(api.Profile{Username: "dana", IsStaff: true})

	snap := store.Snapshot()
	if !snap.HasProfile || snap.Profile.Username != "dana" {
		t.Fatalf("Profile = %+v HasProfile = %v, want dana/true", snap.Profile, snap.HasProfile)
	}

	store.Reset()
	snap = store.Snapshot()
	if snap.HasProfile || len(snap.Requests) != 0 {
		t.Fatalf("snapshot not cleared by Reset: %+v", snap)
	}
}
