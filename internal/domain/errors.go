package domain

import "errors"

// ErrKind categorizes channel failures so callers can react without parsing
// messages.
type ErrKind uint8

const (
	KindNoClient ErrKind = iota + 1
	KindNoRoom
	KindNoEncryptionKey
	KindInvalidIV
	KindInvalidEncryptedData
	KindEncryption
	KindDecryption
	KindConnectionTimeout
	KindTransport
)

var kindNames = map[ErrKind]string{
	KindNoClient:             "no client",
	KindNoRoom:               "no room",
	KindNoEncryptionKey:      "no encryption key",
	KindInvalidIV:            "invalid iv",
	KindInvalidEncryptedData: "invalid encrypted data",
	KindEncryption:           "encryption error",
	KindDecryption:           "decryption error",
	KindConnectionTimeout:    "connection timeout",
	KindTransport:            "transport error",
}

// String returns a short name for the kind.
func (k ErrKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error is a categorized channel failure.
type Error struct {
	Kind  ErrKind
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Inner == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Inner.Error()
}

func (e *Error) Unwrap() error { return e.Inner }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNoRoom) holds
// for every NoRoom failure regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t.Kind == e.Kind
}

// NewError returns an *Error without a cause.
func NewError(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapError returns an *Error carrying inner as its cause.
func WrapError(kind ErrKind, msg string, inner error) *Error {
	return &Error{Kind: kind, Msg: msg, Inner: inner}
}

// IsKind reports whether err is, or wraps, an *Error of kind.
func IsKind(err error, kind ErrKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

var (
	ErrNoClient             = NewError(KindNoClient, "no client available")
	ErrNoRoom               = NewError(KindNoRoom, "no room set")
	ErrNoEncryptionKey      = NewError(KindNoEncryptionKey, "no encryption key set")
	ErrInvalidIV            = NewError(KindInvalidIV, "invalid iv")
	ErrInvalidEncryptedData = NewError(KindInvalidEncryptedData, "invalid encrypted data")
	ErrEncryption           = NewError(KindEncryption, "encryption error")
	ErrDecryption           = NewError(KindDecryption, "decryption error")
	ErrConnectionTimeout    = NewError(KindConnectionTimeout, "connection timed out")
	ErrTransport            = NewError(KindTransport, "transport error")
)
