package keys

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
)

// Provider produces fresh key pairs
type Provider interface {
	CreateKey(alg Algorithm, use Use, size int, curve Curve) (*KeyPair, error)
}

type Option func(*Generator) error

// WithRand sets the entropy source used for key generation
func WithRand(r io.Reader) Option {
	return func(g *Generator) error {
		if r == nil {
			return errors.New("nil entropy source")
		}
		g.rand = r
		return nil
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) error {
		g.now = now
		return nil
	}
}

// Generator is the default in-process Provider
type Generator struct {
	rand io.Reader
	now  func() time.Time
}

var _ Provider = (*Generator)(nil)

func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		rand: rand.Reader,
		now:  time.Now,
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// CreateKey validates the parameters and generates a new Current key pair.
// Nothing is persisted.
func (g *Generator) CreateKey(alg Algorithm, use Use, size int, curve Curve) (*KeyPair, error) {
	if err := Validate(alg, use, size, curve); err != nil {
		return nil, err
	}

	priv, err := generate(g.rand, alg, size, curve)
	if err != nil {
		return nil, errors.Wrap(err, "generating key")
	}
	defer wipePrivate(priv)

	pub, err := publicOf(priv)
	if err != nil {
		return nil, err
	}

	pubBytes, err := encodePublic(alg, curve, pub)
	if err != nil {
		return nil, errors.Wrap(err, "encoding public key")
	}

	privBytes, err := encodePrivate(alg, curve, priv)
	if err != nil {
		return nil, errors.Wrap(err, "encoding private key")
	}

	id, err := KeyID(pubBytes)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		ID:        id,
		Algorithm: alg,
		Curve:     curve,
		Size:      size,
		Use:       use,
		State:     Current,
		PublicKey: pubBytes,
		CreatedAt: g.now().UTC(),
		private:   newSecret(privBytes),
	}, nil
}

// KeyID derives the stable key identifier from the encoded public key
func KeyID(pub []byte) (string, error) {
	mh, err := multihash.Sum(pub, multihash.SHA2_256, -1)
	if err != nil {
		return "", errors.Wrap(err, "hashing public key")
	}

	return mh.B58String(), nil
}
