package acl

import (
	"testing"

	"github.com/inkwell/nmd/internal/status"
)

func TestOwnerAlwaysAllowed(t *testing.T) {
	s := New()
	s.Init("a.txt", "alice")

	if !s.Check("a.txt", "alice", Read|Write) {
		t.Fatal("expected owner to pass Check for any permission")
	}
}

func TestNonListedUserDenied(t *testing.T) {
	s := New()
	s.Init("a.txt", "alice")

	if s.Check("a.txt", "bob", Read) {
		t.Fatal("expected unlisted user to fail Check")
	}
}

func TestGrantThenCheck(t *testing.T) {
	s := New()
	s.Init("a.txt", "alice")

	if err := s.Grant("a.txt", "alice", "bob", Read); err != nil {
		t.Fatalf("Grant() = %v", err)
	}
	if !s.Check("a.txt", "bob", Read) {
		t.Fatal("expected bob to have READ after Grant")
	}
	if s.Check("a.txt", "bob", Write) {
		t.Fatal("expected bob to lack WRITE")
	}
}

func TestGrantIsBitIdempotent(t *testing.T) {
	s := New()
	s.Init("a.txt", "alice")

	s.Grant("a.txt", "alice", "bob", Read)
	s.Grant("a.txt", "alice", "bob", Read)

	entries, err := s.List("a.txt")
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(entries) != 1 || entries[0].Bits != Read {
		t.Fatalf("entries = %+v, want exactly one Read entry", entries)
	}
}

func TestGrantOrsInAdditionalBits(t *testing.T) {
	s := New()
	s.Init("a.txt", "alice")

	s.Grant("a.txt", "alice", "bob", Read)
	s.Grant("a.txt", "alice", "bob", Write)

	if !s.Check("a.txt", "bob", Read|Write) {
		t.Fatal("expected bob to hold both bits after two grants")
	}
}

func TestGrantRequiresOwner(t *testing.T) {
	s := New()
	s.Init("a.txt", "alice")

	err := s.Grant("a.txt", "bob", "carol", Read)
	if status.Of(err) != status.OwnerRequired {
		t.Fatalf("Grant() by non-owner status = %v, want OWNER_REQUIRED", status.Of(err))
	}
}

func TestRevokeRemovesEntry(t *testing.T) {
	s := New()
	s.Init("a.txt", "alice")
	s.Grant("a.txt", "alice", "bob", Read)

	if err := s.Revoke("a.txt", "alice", "bob"); err != nil {
		t.Fatalf("Revoke() = %v", err)
	}
	if s.Check("a.txt", "bob", Read) {
		t.Fatal("expected bob denied after Revoke")
	}
}

func TestRevokeRequiresOwner(t *testing.T) {
	s := New()
	s.Init("a.txt", "alice")
	s.Grant("a.txt", "alice", "bob", Read)

	err := s.Revoke("a.txt", "bob", "bob")
	if status.Of(err) != status.OwnerRequired {
		t.Fatalf("Revoke() by non-owner status = %v, want OWNER_REQUIRED", status.Of(err))
	}
}

func TestGrantFailsWhenFull(t *testing.T) {
	s := New()
	s.Init("a.txt", "alice")

	for i := 0; i < MaxClients; i++ {
		user := string(rune('a' + i%26))
		s.Grant("a.txt", "alice", user+string(rune(i)), Read)
	}

	err := s.Grant("a.txt", "alice", "overflow", Read)
	if status.Of(err) != status.InvalidArgs {
		t.Fatalf("Grant() when full status = %v, want INVALID_ARGS", status.Of(err))
	}
}

func TestOwnerlessFileIsWorldReadableNotWritable(t *testing.T) {
	s := New()
	s.Init("alpha.txt", "")

	if !s.Check("alpha.txt", "alice", Read) {
		t.Fatal("expected any user to have READ on a Storage-Server-announced file with no owner")
	}
	if s.Check("alpha.txt", "alice", Write) {
		t.Fatal("expected WRITE to still require an explicit grant on an ownerless file")
	}
}

func TestDropRemovesACL(t *testing.T) {
	s := New()
	s.Init("a.txt", "alice")
	s.Drop("a.txt")

	if s.Check("a.txt", "alice", Read) {
		t.Fatal("expected Check to fail after Drop")
	}
}
