package dispatcher

import (
	"strconv"
	"strings"

	"github.com/inkwell/nmd/internal/codec"
	"github.com/inkwell/nmd/internal/logger"
	"github.com/inkwell/nmd/internal/registry"
	"github.com/inkwell/nmd/internal/status"
)

// handleInit processes the first frame on a new connection. Anything other
// than CLIENT_INIT or SS_INIT is INVALID_OPERATION and closes the
// connection.
func (d *Dispatcher) handleInit(c *conn, req codec.Request, clientIP string) (codec.Response, bool) {
	switch req.Command {
	case codec.CmdClientInit, codec.CmdRegisterClient:
		return d.handleClientInit(c, req)
	case codec.CmdSSInit, codec.CmdRegisterSS:
		return d.handleSSInit(c, req)
	default:
		return errResp(status.InvalidOperation, "expected CLIENT_INIT or SS_INIT"), true
	}
}

// handleClientInit validates the announced username, rejects a second
// concurrent session for the same user, and otherwise registers (or
// resumes) the session.
func (d *Dispatcher) handleClientInit(c *conn, req codec.Request) (codec.Response, bool) {
	username := strings.TrimSpace(req.Username)
	if !validUsername(username) {
		return errResp(status.InvalidUsername, "invalid username"), true
	}

	if _, active := d.Registry.FindClientByUsername(username); active {
		return errResp(status.AlreadyConnected, "user already connected"), true
	}

	handle := registry.NewHandle()
	d.Registry.AddClient(handle, username)
	if err := d.Roster.Insert(username); err != nil {
		logger.Warn("roster flush failed", logger.Username(username), logger.Err(err))
	}

	c.state = stateReady
	c.role = roleClient
	c.handle = handle
	c.username = username

	logger.Info("client connected", logger.Username(username))
	return okResp(""), false
}

// handleSSInit parses the announced (client_port, file list) and installs a
// new Storage Server entry, ingesting each advertised file into the index.
//
// Args format: "client_port;file:file1,file2,file3" (the "file:" marker is
// optional; an empty file list is "client_port;").
func (d *Dispatcher) handleSSInit(c *conn, req codec.Request) (codec.Response, bool) {
	parts, ok := splitArgs(req.Args, 2)
	if !ok {
		return errResp(status.InvalidArgs, "want client_port;files"), true
	}

	port, err := strconv.Atoi(parts[0])
	if err != nil {
		return errResp(status.InvalidArgs, "invalid client_port"), true
	}

	fileSpec := strings.TrimPrefix(parts[1], "file:")
	var files []string
	if fileSpec != "" {
		files = strings.Split(fileSpec, ",")
	}

	handle := registry.NewHandle()
	d.Registry.RegisterSS(handle, port, files)
	d.ssOrder.add(handle)
	for _, f := range files {
		d.ACLs.Init(f, "")
	}

	c.state = stateReady
	c.role = roleStorageServer
	c.handle = handle

	logger.Info("storage server registered", logger.SSHandle(handle.String()), logger.Filename(strings.Join(files, ",")))
	return okResp(""), false
}
