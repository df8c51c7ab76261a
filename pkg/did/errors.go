package did

import "github.com/pkg/errors"

var (
	ErrNoCurrentKey        = errors.New("no current key for use")
	ErrDuplicateCurrentKey = errors.New("more than one current key for use")
	ErrUnsupportedKeyUse   = errors.New("unsupported key use")
	ErrDuplicateKeyID      = errors.New("key id already present")
	ErrKeyNotCurrent       = errors.New("key is not current")
	ErrInvalidIdentifier   = errors.New("invalid identifier")
)
