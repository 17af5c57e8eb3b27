package registry

import "testing"

func TestRegisterAndLookupSS(t *testing.T) {
	r := New()
	h := NewHandle()

	ss := r.RegisterSS(h, 9000, []string{"a.txt", "b.txt"})
	if ss.FileCount() != 2 {
		t.Fatalf("FileCount() = %d, want 2", ss.FileCount())
	}

	got, ok := r.LookupSS(h)
	if !ok || got != ss {
		t.Fatalf("LookupSS() = %v, %v", got, ok)
	}

	if _, ok := r.FindFile("a.txt"); !ok {
		t.Fatal("expected a.txt to be indexed after SS registration")
	}
}

func TestRemoveSSCascades(t *testing.T) {
	r := New()
	h := NewHandle()
	r.RegisterSS(h, 9000, []string{"a.txt", "b.txt"})

	ev := r.RemoveSS(h)
	if len(ev.RemovedFiles) != 2 {
		t.Fatalf("RemovedFiles = %v, want 2 entries", ev.RemovedFiles)
	}

	if _, ok := r.LookupSS(h); ok {
		t.Fatal("expected SS to be gone after RemoveSS")
	}
	if _, ok := r.FindFile("a.txt"); ok {
		t.Fatal("expected a.txt removed from index after RemoveSS")
	}
}

func TestRemoveSSUnknownHandleIsNoop(t *testing.T) {
	r := New()
	ev := r.RemoveSS(NewHandle())
	if len(ev.RemovedFiles) != 0 {
		t.Fatalf("RemovedFiles = %v, want none", ev.RemovedFiles)
	}
}

func TestClientLifecycle(t *testing.T) {
	r := New()
	h := NewHandle()

	r.AddClient(h, "alice")

	if _, ok := r.FindClientByUsername("alice"); !ok {
		t.Fatal("expected alice findable by username")
	}
	if _, ok := r.FindClientByHandle(h); !ok {
		t.Fatal("expected alice findable by handle")
	}

	removed, ok := r.RemoveClient(h)
	if !ok || removed.Username != "alice" {
		t.Fatalf("RemoveClient() = %v, %v", removed, ok)
	}
	if _, ok := r.FindClientByUsername("alice"); ok {
		t.Fatal("expected alice gone after RemoveClient")
	}
}

func TestRemoveClientDoesNotClobberReconnectedUser(t *testing.T) {
	r := New()
	h1, h2 := NewHandle(), NewHandle()

	r.AddClient(h1, "alice")
	r.AddClient(h2, "alice") // reconnect under a new handle

	r.RemoveClient(h1)

	// the stale handle's removal must not delete the live session
	if _, ok := r.FindClientByUsername("alice"); !ok {
		t.Fatal("expected alice's active session to survive removal of a stale handle")
	}
}

func TestAddFileAndRemoveFile(t *testing.T) {
	r := New()
	ssHandle := NewHandle()
	r.RegisterSS(ssHandle, 9000, nil)

	r.AddFile("report.txt", "alice", ssHandle)

	fe, ok := r.FindFile("report.txt")
	if !ok || fe.Owner != "alice" {
		t.Fatalf("FindFile() = %v, %v", fe, ok)
	}

	ss, _ := r.LookupSS(ssHandle)
	if ss.FileCount() != 1 {
		t.Fatalf("FileCount() after AddFile = %d, want 1", ss.FileCount())
	}

	r.RemoveFile("report.txt")
	if _, ok := r.FindFile("report.txt"); ok {
		t.Fatal("expected report.txt gone after RemoveFile")
	}
	if ss.FileCount() != 0 {
		t.Fatalf("FileCount() after RemoveFile = %d, want 0", ss.FileCount())
	}
}

func TestSelectSSForCreateFewestFiles(t *testing.T) {
	r := New()
	h1, h2, h3 := NewHandle(), NewHandle(), NewHandle()
	r.RegisterSS(h1, 9001, []string{"a.txt", "b.txt"})
	r.RegisterSS(h2, 9002, nil)
	r.RegisterSS(h3, 9003, []string{"c.txt"})

	order := []Handle{h1, h2, h3}
	got, ok := r.SelectSSForCreate(order)
	if !ok || got != h2 {
		t.Fatalf("SelectSSForCreate() = %v, %v, want %v", got, ok, h2)
	}
}

func TestSelectSSForCreateTieBreaksByInsertionOrder(t *testing.T) {
	r := New()
	h1, h2 := NewHandle(), NewHandle()
	r.RegisterSS(h1, 9001, nil)
	r.RegisterSS(h2, 9002, nil)

	order := []Handle{h1, h2}
	got, ok := r.SelectSSForCreate(order)
	if !ok || got != h1 {
		t.Fatalf("SelectSSForCreate() = %v, %v, want %v (first in order)", got, ok, h1)
	}
}

func TestSelectSSForCreateNoneActive(t *testing.T) {
	r := New()
	_, ok := r.SelectSSForCreate(nil)
	if ok {
		t.Fatal("expected no SS to be selectable when registry is empty")
	}
}

func TestTouchModifiedUpdatesCounts(t *testing.T) {
	r := New()
	ssHandle := NewHandle()
	r.RegisterSS(ssHandle, 9000, nil)
	r.AddFile("x.txt", "alice", ssHandle)

	r.TouchModified("x.txt", "alice", 12, 80)

	fe, _ := r.FindFile("x.txt")
	if fe.WordCount != 12 || fe.CharCount != 80 || fe.LastModifiedBy != "alice" {
		t.Fatalf("FindFile() after TouchModified = %+v", fe)
	}
}

func TestActiveClientsSnapshot(t *testing.T) {
	r := New()
	r.AddClient(NewHandle(), "alice")
	r.AddClient(NewHandle(), "bob")

	got := r.ActiveClients()
	if len(got) != 2 {
		t.Fatalf("ActiveClients() = %v, want 2 entries", got)
	}
}
