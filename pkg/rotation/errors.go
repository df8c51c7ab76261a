package rotation

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/keys"
)

// Kind identifies a known rotation failure
type Kind int

const (
	IdentifierNotProvided Kind = iota + 1
	KeyNotConfigured
	NoCurrentKey
	DuplicateCurrentKey
	InvalidKeyParameters
	UnsupportedKeyUse
	NotFound
	Forbidden
	ConcurrentModification
)

var kindNames = map[Kind]string{
	IdentifierNotProvided:  "IdentifierNotProvided",
	KeyNotConfigured:       "KeyNotConfigured",
	NoCurrentKey:           "NoCurrentKey",
	DuplicateCurrentKey:    "DuplicateCurrentKey",
	InvalidKeyParameters:   "InvalidKeyParameters",
	UnsupportedKeyUse:      "UnsupportedKeyUse",
	NotFound:               "NotFound",
	Forbidden:              "Forbidden",
	ConcurrentModification: "ConcurrentModification",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Class groups kinds by how a caller should react to them
type Class int

const (
	RequestShape Class = iota + 1
	State
	Validation
	Authorization
	Concurrency
)

func (k Kind) Class() Class {
	switch k {
	case IdentifierNotProvided:
		return RequestShape
	case KeyNotConfigured, NoCurrentKey, DuplicateCurrentKey:
		return State
	case InvalidKeyParameters, UnsupportedKeyUse:
		return Validation
	case NotFound, Forbidden:
		return Authorization
	case ConcurrentModification:
		return Concurrency
	default:
		return 0
	}
}

// Error is a known rotation failure. Anything else returned by Rotate is
// unexpected.
type Error struct {
	Kind       Kind
	Identifier string
	Use        keys.Use
	Err        error
}

func newError(k Kind, id string, use keys.Use, err error) *Error {
	return &Error{Kind: k, Identifier: id, Use: use, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Identifier != "" {
		msg += " for " + e.Identifier
	}
	if e.Use != "" {
		msg += " (" + string(e.Use) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind of a known failure
func KindOf(err error) (Kind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}
