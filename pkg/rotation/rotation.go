package rotation

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tcfw/didkms/internal/utils/logging"
	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/keys"
	"github.com/tcfw/didkms/pkg/storage"
)

// Request asks for the current key of Use to be replaced. Zero values of
// Algorithm, Size and Curve inherit from the key being retired.
type Request struct {
	Identifier string
	Use        keys.Use
	Algorithm  keys.Algorithm
	Size       int
	Curve      keys.Curve
	Caller     did.Principal
}

type Option func(*Rotator) error

func WithLogger(l *logrus.Entry) Option {
	return func(r *Rotator) error {
		r.log = l
		return nil
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Rotator) error {
		r.now = now
		return nil
	}
}

func WithProvider(p keys.Provider) Option {
	return func(r *Rotator) error {
		if p == nil {
			return errors.New("nil key provider")
		}
		r.provider = p
		return nil
	}
}

// Rotator replaces an identifier's current key for a use and publishes
// the new verification method. It holds no locks; conflicting rotations
// are detected by the store.
type Rotator struct {
	store    did.IdentityStore
	provider keys.Provider
	log      *logrus.Entry
	now      func() time.Time
}

func NewRotator(store did.IdentityStore, opts ...Option) (*Rotator, error) {
	if store == nil {
		return nil, errors.New("nil identity store")
	}

	r := &Rotator{
		store: store,
		log:   logging.Entry(),
		now:   time.Now,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.provider == nil {
		g, err := keys.NewGenerator(keys.WithClock(r.now))
		if err != nil {
			return nil, err
		}
		r.provider = g
	}

	return r, nil
}

// Rotate retires the current key for req.Use, generates its replacement
// and persists the identifier. Known failures are returned as *Error; on
// any failure nothing is committed.
func (r *Rotator) Rotate(ctx context.Context, req Request) (*w3cdid.Document, error) {
	if req.Identifier == "" {
		return nil, newError(IdentifierNotProvided, "", req.Use, nil)
	}

	use := req.Use
	if use == "" {
		use = keys.Signing
	}

	rel, err := did.RelationshipFor(use)
	if err != nil {
		return nil, newError(UnsupportedKeyUse, req.Identifier, use, err)
	}

	log := r.log.WithFields(logging.Fields{"identifier": req.Identifier, "use": use})

	ident, err := r.store.Read(ctx, req.Identifier, req.Caller)
	if err != nil {
		return nil, storeError(err, req.Identifier, use, "reading identifier")
	}
	defer ident.Wipe()

	current, err := ident.CurrentKey(use)
	switch {
	case errors.Is(err, did.ErrNoCurrentKey):
		return nil, newError(KeyNotConfigured, req.Identifier, use, err)
	case errors.Is(err, did.ErrDuplicateCurrentKey):
		return nil, newError(DuplicateCurrentKey, req.Identifier, use, err)
	case err != nil:
		return nil, errors.Wrap(err, "finding current key")
	}

	alg, size, curve := resolveParameters(current, req)

	kp, err := r.provider.CreateKey(alg, use, size, curve)
	switch {
	case errors.Is(err, keys.ErrInvalidKeyParameters):
		return nil, newError(InvalidKeyParameters, req.Identifier, use, err)
	case errors.Is(err, keys.ErrUnknownUse):
		return nil, newError(UnsupportedKeyUse, req.Identifier, use, err)
	case err != nil:
		return nil, errors.Wrap(err, "creating key")
	}
	defer kp.Wipe()

	now := r.now()
	retired := current.ID

	if err := ident.RetireCurrentKey(use, now); err != nil {
		if errors.Is(err, did.ErrNoCurrentKey) {
			return nil, newError(NoCurrentKey, req.Identifier, use, err)
		}
		return nil, errors.Wrap(err, "retiring current key")
	}

	if err := ident.AddKey(kp); err != nil {
		if errors.Is(err, did.ErrDuplicateCurrentKey) {
			return nil, newError(DuplicateCurrentKey, req.Identifier, use, err)
		}
		return nil, errors.Wrap(err, "adding key")
	}

	vm, err := did.ToVerificationMethod(kp, ident.DocumentID())
	if err != nil {
		return nil, errors.Wrap(err, "mapping verification method")
	}

	if err := ident.Document.AddVerificationMethod(vm, rel); err != nil {
		return nil, errors.Wrap(err, "updating document")
	}
	ident.Document.Touch(now)

	if err := r.store.AddOrUpdate(ctx, ident); err != nil {
		return nil, storeError(err, req.Identifier, use, "storing identifier")
	}

	log.WithFields(logging.Fields{
		"retired":   retired,
		"key":       kp.ID,
		"algorithm": kp.Algorithm,
		"curve":     kp.Curve,
		"size":      kp.Size,
		"version":   ident.Version,
	}).Info("rotated key")

	return ident.Document, nil
}

// resolveParameters applies overrides on top of the retiring key's shape.
// When the algorithm changes, an inherited size or curve is only kept if
// the new algorithm accepts it; explicit overrides are always passed on so
// the provider can reject them.
func resolveParameters(current *keys.KeyPair, req Request) (keys.Algorithm, int, keys.Curve) {
	alg, size, curve := current.Algorithm, current.Size, current.Curve

	if req.Algorithm != "" && req.Algorithm != alg {
		alg = req.Algorithm
		if !alg.AcceptsSize(size) {
			size = 0
		}
		if !alg.AcceptsCurve(curve) {
			curve = ""
		}
	}

	if req.Size != 0 {
		size = req.Size
	}
	if req.Curve != "" {
		curve = req.Curve
	}

	return alg, size, curve
}

func storeError(err error, id string, use keys.Use, action string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return newError(NotFound, id, use, err)
	case errors.Is(err, storage.ErrForbidden):
		return newError(Forbidden, id, use, err)
	case errors.Is(err, storage.ErrConflict):
		return newError(ConcurrentModification, id, use, err)
	default:
		return errors.Wrap(err, action)
	}
}
