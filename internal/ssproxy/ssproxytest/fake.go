// Package ssproxytest provides an in-memory fake Storage Server used by
// dispatcher and end-to-end tests, so READ/WRITE/ETIRW/UNDO/EXEC can be
// exercised without a real Storage Server process.
package ssproxytest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/inkwell/nmd/internal/codec"
	"github.com/inkwell/nmd/internal/document"
	"github.com/inkwell/nmd/internal/status"
)

type file struct {
	doc     *document.Document
	backup  *document.Document
	pending *document.Document
}

// FakeSS is a minimal, in-memory stand-in for a Storage Server's control
// connection. It understands the same semicolon-separated args convention
// real Storage Servers use.
type FakeSS struct {
	mu    sync.Mutex
	files map[string]*file

	// Fail, if set, is returned by Forward for every call, simulating a
	// disconnected Storage Server.
	Fail error
}

// New constructs an empty FakeSS.
func New() *FakeSS {
	return &FakeSS{files: make(map[string]*file)}
}

// Forward implements ssproxy.Forwarder.
func (f *FakeSS) Forward(_ context.Context, req codec.Request) (codec.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Fail != nil {
		return codec.Response{}, f.Fail
	}

	parts := strings.Split(req.Args, ";")
	name := parts[0]

	switch req.Command {
	case codec.CmdCreate:
		f.files[name] = &file{doc: &document.Document{}}
		return ok(""), nil

	case codec.CmdDelete:
		delete(f.files, name)
		return ok(""), nil

	case codec.CmdRead, codec.CmdStream:
		fl, ok2 := f.files[name]
		if !ok2 {
			return errResp(status.NotFound, "file not found"), nil
		}
		return ok(document.Serialize(fl.doc)), nil

	case codec.CmdWrite:
		fl, ok2 := f.files[name]
		if !ok2 {
			return errResp(status.NotFound, "file not found"), nil
		}
		if len(parts) != 4 {
			return errResp(status.InvalidArgs, "want file;sentence;word;text"), nil
		}
		sIdx, err1 := strconv.Atoi(parts[1])
		wIdx, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil {
			return errResp(status.InvalidArgs, "non-numeric index"), nil
		}
		if fl.pending == nil {
			clone := &document.Document{Sentences: make([]document.Sentence, len(fl.doc.Sentences))}
			for i, s := range fl.doc.Sentences {
				clone.Sentences[i].Words = append([]string(nil), s.Words...)
			}
			fl.pending = clone
		}
		if !fl.pending.SetWord(sIdx, wIdx, parts[3]) {
			return errResp(status.WordOutOfRange, "index out of range"), nil
		}
		return ok(""), nil

	case codec.CmdEtirw:
		fl, ok2 := f.files[name]
		if !ok2 {
			return errResp(status.NotFound, "file not found"), nil
		}
		backup := fl.doc
		fl.backup = backup
		if fl.pending != nil {
			fl.doc = fl.pending
			fl.pending = nil
		}
		return ok(""), nil

	case codec.CmdUndo:
		fl, ok2 := f.files[name]
		if !ok2 {
			return errResp(status.NotFound, "file not found"), nil
		}
		if fl.backup == nil {
			return errResp(status.UndoNotAvailable, "no backup available"), nil
		}
		fl.doc = fl.backup
		fl.backup = nil
		return ok(""), nil

	case codec.CmdExec:
		fl, ok2 := f.files[name]
		if !ok2 {
			return errResp(status.NotFound, "file not found"), nil
		}
		return ok(fmt.Sprintf("executed %s\n%s\n", name, document.Serialize(fl.doc))), nil

	default:
		return errResp(status.InvalidOperation, "unsupported command"), nil
	}
}

// Seed installs a file with initial text, bypassing CREATE, for test setup.
func (f *FakeSS) Seed(name, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[name] = &file{doc: document.Parse(text)}
}

func ok(data string) codec.Response {
	return codec.Response{Status: uint32(status.OK), Data: data}
}

func errResp(code status.Code, msg string) codec.Response {
	return codec.Response{Status: uint32(code), Data: msg}
}
