package dispatcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/inkwell/nmd/internal/acl"
	"github.com/inkwell/nmd/internal/codec"
	"github.com/inkwell/nmd/internal/document"
	"github.com/inkwell/nmd/internal/registry"
	"github.com/inkwell/nmd/internal/status"
)

// handleReady routes one frame on an authenticated client connection.
func (d *Dispatcher) handleReady(ctx context.Context, c *conn, req codec.Request) (codec.Response, bool) {
	if c.write != nil && req.Command == codec.CmdWrite {
		return d.handleWriteEdit(ctx, c, req), false
	}

	switch req.Command {
	case codec.CmdView:
		return d.handleView(c, req), false
	case codec.CmdList:
		return d.handleList(), false
	case codec.CmdInfo:
		return d.handleInfo(c, req), false
	case codec.CmdCreate:
		return d.handleCreate(ctx, c, req), false
	case codec.CmdDelete:
		return d.handleDelete(ctx, c, req), false
	case codec.CmdRead:
		return d.handleRead(ctx, c, req, false), false
	case codec.CmdStream:
		return d.handleRead(ctx, c, req, true), false
	case codec.CmdWrite:
		return d.handleWriteAcquire(c, req), false
	case codec.CmdEtirw:
		return d.handleEtirw(ctx, c), false
	case codec.CmdUndo:
		return d.handleUndo(ctx, c, req), false
	case codec.CmdAddAccess:
		return d.handleAddAccess(c, req), false
	case codec.CmdRemAccess:
		return d.handleRemAccess(c, req), false
	case codec.CmdUpdateACL:
		return d.handleUpdateACL(c, req), false
	case codec.CmdGetACL:
		return d.handleGetACL(c, req), false
	case codec.CmdExec:
		return d.handleExec(ctx, c, req), false
	case codec.CmdHeartbeat:
		d.Registry.TouchClient(c.handle)
		return okResp(""), false
	default:
		return errResp(status.InvalidOperation, "unknown command"), true
	}
}

// resolveSS finds the Storage Server owning file, consulting the
// recent-lookup cache first.
func (d *Dispatcher) resolveSS(file string) (registry.Handle, error) {
	if h, ok := d.Cache.Get(file); ok {
		return h, nil
	}
	fe, ok := d.Registry.FindFile(file)
	if !ok {
		return registry.Handle{}, status.New(status.NotFound, "file not found")
	}
	d.Cache.Put(file, fe.SSHandle)
	return fe.SSHandle, nil
}

// handleView lists files: by default, only those the caller can read.
// "-a" additionally includes files the caller has no access to at all.
// "-l" switches to a long listing carrying owner and word/char counts.
func (d *Dispatcher) handleView(c *conn, req codec.Request) codec.Response {
	all := strings.Contains(req.Args, "-a")
	long := strings.Contains(req.Args, "-l")

	files := d.Registry.AllFiles()
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var lines []string
	for _, fe := range files {
		if !all && !d.ACLs.Check(fe.Name, c.username, acl.Read) {
			continue
		}
		if long {
			lines = append(lines, fmt.Sprintf("%s\towner=%s\twords=%d\tchars=%d", fe.Name, fe.Owner, fe.WordCount, fe.CharCount))
		} else {
			lines = append(lines, fe.Name)
		}
	}
	return okResp(strings.Join(lines, "\n"))
}

func (d *Dispatcher) handleList() codec.Response {
	names := d.Registry.ActiveClients()
	sort.Strings(names)
	return okResp(strings.Join(names, ","))
}

func (d *Dispatcher) handleInfo(c *conn, req codec.Request) codec.Response {
	file := req.Args
	fe, ok := d.Registry.FindFile(file)
	if !ok {
		return errResp(status.NotFound, "file not found")
	}
	if !d.ACLs.Check(file, c.username, acl.Read) {
		return errResp(status.ReadPermission, "read permission required")
	}
	d.Registry.TouchAccessed(file, c.username)
	return okResp(fmt.Sprintf("owner=%s;words=%d;chars=%d;modified_by=%s", fe.Owner, fe.WordCount, fe.CharCount, fe.LastModifiedBy))
}

func (d *Dispatcher) handleCreate(ctx context.Context, c *conn, req codec.Request) codec.Response {
	file := req.Args
	if !validFilename(file) {
		return errResp(status.InvalidFilename, "invalid filename")
	}
	if _, exists := d.Registry.FindFile(file); exists {
		return errResp(status.FileExists, "file already exists")
	}

	ssHandle, ok := d.Registry.SelectSSForCreate(d.ssOrder.snapshot())
	if !ok {
		return errResp(status.ServerUnavailable, "no storage server available")
	}

	resp, err := d.forwardToSS(ctx, ssHandle, codec.Request{Command: codec.CmdCreate, Args: file})
	if err != nil {
		d.EvictStorageServer(ssHandle)
		return respondErr(err)
	}
	if status.Code(resp.Status) != status.OK {
		return errResp(status.Code(resp.Status), resp.Data)
	}

	d.Registry.AddFile(file, c.username, ssHandle)
	d.ACLs.Init(file, c.username)
	d.Cache.Invalidate(file)
	return okResp("")
}

func (d *Dispatcher) handleDelete(ctx context.Context, c *conn, req codec.Request) codec.Response {
	file := req.Args
	owner, ok := d.ACLs.Owner(file)
	if !ok {
		return errResp(status.NotFound, "file not found")
	}
	if owner != c.username {
		return errResp(status.OwnerRequired, "only the owner may delete")
	}

	ssHandle, err := d.resolveSS(file)
	if err != nil {
		return respondErr(err)
	}

	resp, err := d.forwardToSS(ctx, ssHandle, codec.Request{Command: codec.CmdDelete, Args: file})
	if err != nil {
		d.EvictStorageServer(ssHandle)
		return respondErr(err)
	}
	if status.Code(resp.Status) != status.OK {
		return errResp(status.Code(resp.Status), resp.Data)
	}

	d.Locks.ReleaseAllOnFile(file)
	d.Registry.RemoveFile(file)
	d.ACLs.Drop(file)
	d.Cache.Invalidate(file)
	return okResp("")
}

func (d *Dispatcher) handleRead(ctx context.Context, c *conn, req codec.Request, paced bool) codec.Response {
	file := req.Args
	if _, ok := d.Registry.FindFile(file); !ok {
		return errResp(status.NotFound, "file not found")
	}
	if !d.ACLs.Check(file, c.username, acl.Read) {
		return errResp(status.ReadPermission, "read permission required")
	}
	ssHandle, err := d.resolveSS(file)
	if err != nil {
		return respondErr(err)
	}

	cmd := codec.CmdRead
	if paced {
		cmd = codec.CmdStream
	}
	resp, err := d.forwardToSS(ctx, ssHandle, codec.Request{Command: cmd, Args: file})
	if err != nil {
		d.EvictStorageServer(ssHandle)
		return respondErr(err)
	}
	if status.Code(resp.Status) == status.OK {
		d.Registry.TouchAccessed(file, c.username)
	}
	return errResp(status.Code(resp.Status), resp.Data)
}

func (d *Dispatcher) handleWriteAcquire(c *conn, req codec.Request) codec.Response {
	parts, ok := splitArgs(req.Args, 2)
	if !ok {
		return errResp(status.InvalidArgs, "want file;sentence_index")
	}
	file := parts[0]
	idx, err := atoi(parts[1])
	if err != nil || idx < 0 || idx >= document.MaxSentences {
		return errResp(status.SentenceOutOfRange, "invalid sentence index")
	}
	if _, ok := d.Registry.FindFile(file); !ok {
		return errResp(status.NotFound, "file not found")
	}
	if !d.ACLs.Check(file, c.username, acl.Write) {
		return errResp(status.WritePermission, "write permission required")
	}

	if lockErr := d.Locks.Acquire(file, idx, c.username); lockErr != nil {
		return respondErr(lockErr)
	}

	c.write = &writeSession{file: file, sentence: idx}
	return okResp("")
}

func (d *Dispatcher) handleWriteEdit(ctx context.Context, c *conn, req codec.Request) codec.Response {
	parts, ok := splitArgs(req.Args, 2)
	if !ok {
		return errResp(status.InvalidArgs, "want word_index;word")
	}
	wordIdx, err := atoi(parts[0])
	if err != nil || wordIdx < 0 || wordIdx >= document.MaxWords {
		return errResp(status.WordOutOfRange, "invalid word index")
	}

	ssHandle, rerr := d.resolveSS(c.write.file)
	if rerr != nil {
		return respondErr(rerr)
	}

	forwardArgs := strings.Join([]string{c.write.file, strconv.Itoa(c.write.sentence), parts[0], parts[1]}, ";")
	resp, ferr := d.forwardToSS(ctx, ssHandle, codec.Request{Command: codec.CmdWrite, Args: forwardArgs})
	if ferr != nil {
		d.EvictStorageServer(ssHandle)
		return respondErr(ferr)
	}
	return errResp(status.Code(resp.Status), resp.Data)
}

func (d *Dispatcher) handleEtirw(ctx context.Context, c *conn) codec.Response {
	if c.write == nil {
		return errResp(status.InvalidOperation, "no write session in progress")
	}
	file := c.write.file
	idx := c.write.sentence

	ssHandle, err := d.resolveSS(file)
	if err != nil {
		c.write = nil
		d.Locks.Release(file, idx, c.username)
		return respondErr(err)
	}

	resp, err := d.forwardToSS(ctx, ssHandle, codec.Request{Command: codec.CmdEtirw, Args: file})
	c.write = nil
	d.Locks.Release(file, idx, c.username)
	if err != nil {
		d.EvictStorageServer(ssHandle)
		return respondErr(err)
	}
	if status.Code(resp.Status) != status.OK {
		return errResp(status.Code(resp.Status), resp.Data)
	}

	if readResp, rerr := d.forwardToSS(ctx, ssHandle, codec.Request{Command: codec.CmdRead, Args: file}); rerr == nil && status.Code(readResp.Status) == status.OK {
		counts := document.Count(document.Parse(readResp.Data))
		d.Registry.TouchModified(file, c.username, counts.Words, counts.Chars)
	}
	return okResp("")
}

func (d *Dispatcher) handleUndo(ctx context.Context, c *conn, req codec.Request) codec.Response {
	file := req.Args
	if _, ok := d.Registry.FindFile(file); !ok {
		return errResp(status.NotFound, "file not found")
	}
	if !d.ACLs.Check(file, c.username, acl.Write) {
		return errResp(status.WritePermission, "write permission required")
	}
	ssHandle, err := d.resolveSS(file)
	if err != nil {
		return respondErr(err)
	}

	resp, err := d.forwardToSS(ctx, ssHandle, codec.Request{Command: codec.CmdUndo, Args: file})
	if err != nil {
		d.EvictStorageServer(ssHandle)
		return respondErr(err)
	}
	return errResp(status.Code(resp.Status), resp.Data)
}

func (d *Dispatcher) handleAddAccess(c *conn, req codec.Request) codec.Response {
	parts, ok := splitArgs(req.Args, 3)
	if !ok {
		return errResp(status.InvalidArgs, "want file;user;bits")
	}
	bits, err := parsePermission(parts[2])
	if err != nil {
		return errResp(status.InvalidArgs, "invalid permission bits")
	}
	if err := d.ACLs.Grant(parts[0], c.username, parts[1], bits); err != nil {
		return respondErr(err)
	}
	return okResp("")
}

func (d *Dispatcher) handleRemAccess(c *conn, req codec.Request) codec.Response {
	parts, ok := splitArgs(req.Args, 2)
	if !ok {
		return errResp(status.InvalidArgs, "want file;user")
	}
	if err := d.ACLs.Revoke(parts[0], c.username, parts[1]); err != nil {
		return respondErr(err)
	}
	return okResp("")
}

func (d *Dispatcher) handleUpdateACL(c *conn, req codec.Request) codec.Response {
	parts, ok := splitArgs(req.Args, 3)
	if !ok {
		return errResp(status.InvalidArgs, "want file;user;bits")
	}
	bits, err := parsePermission(parts[2])
	if err != nil {
		return errResp(status.InvalidArgs, "invalid permission bits")
	}
	if err := d.ACLs.Revoke(parts[0], c.username, parts[1]); err != nil {
		return respondErr(err)
	}
	if err := d.ACLs.Grant(parts[0], c.username, parts[1], bits); err != nil {
		return respondErr(err)
	}
	return okResp("")
}

func (d *Dispatcher) handleGetACL(c *conn, req codec.Request) codec.Response {
	file := req.Args
	if !d.ACLs.Check(file, c.username, acl.Read) {
		return errResp(status.ReadPermission, "read permission required")
	}
	entries, err := d.ACLs.List(file)
	if err != nil {
		return respondErr(err)
	}
	owner, _ := d.ACLs.Owner(file)

	parts := make([]string, 0, len(entries)+1)
	parts = append(parts, "owner="+owner)
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s:%d", e.Username, e.Bits))
	}
	return okResp(strings.Join(parts, ","))
}

func (d *Dispatcher) handleExec(ctx context.Context, c *conn, req codec.Request) codec.Response {
	file := req.Args
	if _, ok := d.Registry.FindFile(file); !ok {
		return errResp(status.NotFound, "file not found")
	}
	if !d.ACLs.Check(file, c.username, acl.Read) {
		return errResp(status.ReadPermission, "read permission required")
	}
	ssHandle, err := d.resolveSS(file)
	if err != nil {
		return respondErr(err)
	}
	readResp, err := d.forwardToSS(ctx, ssHandle, codec.Request{Command: codec.CmdRead, Args: file})
	if err != nil {
		d.EvictStorageServer(ssHandle)
		return respondErr(err)
	}
	if status.Code(readResp.Status) != status.OK {
		return errResp(status.Code(readResp.Status), readResp.Data)
	}

	tmp, err := os.CreateTemp("", "nmd-exec-*")
	if err != nil {
		return errResp(status.Internal, "could not stage file for execution")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(readResp.Data); err != nil {
		tmp.Close()
		return errResp(status.Internal, "could not stage file for execution")
	}
	tmp.Close()
	if err := os.Chmod(tmp.Name(), 0o700); err != nil {
		return errResp(status.Internal, "could not stage file for execution")
	}

	cmd := exec.CommandContext(ctx, tmp.Name())
	out, runErr := cmd.Output()
	if runErr != nil {
		return errResp(status.ExecutionFailed, string(out))
	}
	return okResp(string(out))
}

func parsePermission(s string) (acl.Permission, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > int(acl.Read|acl.Write) {
		return 0, status.New(status.InvalidArgs, "invalid permission bits")
	}
	return acl.Permission(n), nil
}
