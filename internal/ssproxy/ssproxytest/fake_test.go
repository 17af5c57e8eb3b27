package ssproxytest

import (
	"context"
	"testing"

	"github.com/inkwell/nmd/internal/codec"
	"github.com/inkwell/nmd/internal/status"
)

func forward(t *testing.T, ss *FakeSS, cmd codec.Command, args string) codec.Response {
	t.Helper()
	resp, err := ss.Forward(context.Background(), codec.Request{Command: cmd, Args: args})
	if err != nil {
		t.Fatalf("Forward(%v, %q) = %v", cmd, args, err)
	}
	return resp
}

func TestCreateReadRoundTrip(t *testing.T) {
	ss := New()

	resp := forward(t, ss, codec.CmdCreate, "a.txt")
	if resp.Status != 0 {
		t.Fatalf("CREATE status = %d, want 0", resp.Status)
	}

	resp = forward(t, ss, codec.CmdRead, "a.txt")
	if resp.Status != 0 || resp.Data != "" {
		t.Fatalf("READ of fresh file = %+v", resp)
	}
}

func TestWriteThenEtirwCommitsEdit(t *testing.T) {
	ss := New()
	ss.Seed("a.txt", "Hello world.")

	forward(t, ss, codec.CmdWrite, "a.txt;0;1;there")
	// pending edit not yet visible
	resp := forward(t, ss, codec.CmdRead, "a.txt")
	if resp.Data != "Hello world." {
		t.Fatalf("READ before ETIRW = %q, want unchanged content", resp.Data)
	}

	forward(t, ss, codec.CmdEtirw, "a.txt")
	resp = forward(t, ss, codec.CmdRead, "a.txt")
	if resp.Data != "Hello there" {
		t.Fatalf("READ after ETIRW = %q, want %q", resp.Data, "Hello there")
	}
}

func TestUndoRestoresBackup(t *testing.T) {
	ss := New()
	ss.Seed("a.txt", "Hello world.")

	forward(t, ss, codec.CmdWrite, "a.txt;0;1;there")
	forward(t, ss, codec.CmdEtirw, "a.txt")

	resp := forward(t, ss, codec.CmdUndo, "a.txt")
	if resp.Status != 0 {
		t.Fatalf("UNDO status = %d, want 0", resp.Status)
	}

	resp = forward(t, ss, codec.CmdRead, "a.txt")
	if resp.Data != "Hello world." {
		t.Fatalf("READ after UNDO = %q, want restored content", resp.Data)
	}
}

func TestUndoWithoutBackupFails(t *testing.T) {
	ss := New()
	ss.Seed("a.txt", "Hello world.")

	resp := forward(t, ss, codec.CmdUndo, "a.txt")
	if status.Code(resp.Status) != status.UndoNotAvailable {
		t.Fatalf("UNDO without backup status = %d, want %d", resp.Status, status.UndoNotAvailable)
	}
}

func TestReadMissingFileIsNotFound(t *testing.T) {
	ss := New()
	resp := forward(t, ss, codec.CmdRead, "missing.txt")
	if status.Code(resp.Status) != status.NotFound {
		t.Fatalf("READ of missing file status = %d, want %d", resp.Status, status.NotFound)
	}
}

func TestForwardReturnsConfiguredFailure(t *testing.T) {
	ss := New()
	ss.Fail = status.New(status.ServerUnavailable, "down")

	_, err := ss.Forward(context.Background(), codec.Request{Command: codec.CmdRead, Args: "a.txt"})
	if status.Of(err) != status.ServerUnavailable {
		t.Fatalf("Forward() status = %v, want SERVER_UNAVAILABLE", status.Of(err))
	}
}
