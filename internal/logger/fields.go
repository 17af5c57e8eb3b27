package logger

import "log/slog"

// Standard field keys for structured logging across the Name Server.
// Use these consistently so log lines can be queried/aggregated by field name.
const (
	KeyCommand     = "command"      // Wire command name: VIEW, WRITE, CREATE, etc.
	KeyUsername    = "username"     // Client username
	KeyClientIP    = "client_ip"    // Client or SS origin address
	KeyFilename    = "filename"     // Filename
	KeySentence    = "sentence"     // Sentence index
	KeyWord        = "word"         // Word index
	KeyHandle      = "handle"       // Connection handle (SS or client)
	KeyStatus      = "status"       // Wire status code
	KeyDurationMs  = "duration_ms"  // Operation duration in milliseconds
	KeyError       = "error"        // Error message
	KeySSHandle    = "ss_handle"    // Storage server handle
	KeyLockHolder  = "lock_holder"  // Current or rejected lock holder
	KeyEvicted     = "evicted"      // Count of entries evicted in a sweep
)

// Command returns a slog.Attr for the wire command name.
func Command(name string) slog.Attr { return slog.String(KeyCommand, name) }

// Username returns a slog.Attr for a client username.
func Username(name string) slog.Attr { return slog.String(KeyUsername, name) }

// ClientIP returns a slog.Attr for a client or SS address.
func ClientIP(addr string) slog.Attr { return slog.String(KeyClientIP, addr) }

// Filename returns a slog.Attr for a filename.
func Filename(name string) slog.Attr { return slog.String(KeyFilename, name) }

// Sentence returns a slog.Attr for a sentence index.
func Sentence(idx int) slog.Attr { return slog.Int(KeySentence, idx) }

// Word returns a slog.Attr for a word index.
func Word(idx int) slog.Attr { return slog.Int(KeyWord, idx) }

// Handle returns a slog.Attr for a connection handle.
func Handle(id string) slog.Attr { return slog.String(KeyHandle, id) }

// Status returns a slog.Attr for a wire status code.
func Status(code int) slog.Attr { return slog.Int(KeyStatus, code) }

// DurationMs returns a slog.Attr for an operation duration in milliseconds.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error, or a no-op attr for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// SSHandle returns a slog.Attr for a storage server handle.
func SSHandle(id string) slog.Attr { return slog.String(KeySSHandle, id) }

// LockHolder returns a slog.Attr for a lock holder's username.
func LockHolder(name string) slog.Attr { return slog.String(KeyLockHolder, name) }

// Evicted returns a slog.Attr for the number of entries evicted in a sweep.
func Evicted(n int) slog.Attr { return slog.Int(KeyEvicted, n) }
