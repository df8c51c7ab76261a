package keys

import (
	"crypto"
	"time"

	"github.com/awnumar/memguard"
	"github.com/pkg/errors"
)

// KeyPair is one generated key belonging to an identifier. The private
// material is only held while the key is Current.
type KeyPair struct {
	ID        string
	Algorithm Algorithm
	Curve     Curve
	Size      int
	Use       Use
	State     State
	PublicKey []byte
	CreatedAt time.Time
	RetiredAt *time.Time

	private *secret
}

// secret owns the backing bytes of a private key so they can be
// overwritten in place rather than left for the GC
type secret struct {
	b []byte
}

func newSecret(b []byte) *secret {
	return &secret{b: b}
}

func (s *secret) wipe() {
	if s == nil {
		return
	}
	memguard.WipeBytes(s.b)
	s.b = nil
}

func (k *KeyPair) HasPrivateKey() bool {
	return k.private != nil && len(k.private.b) > 0
}

// Retire moves the key to Historical and erases its private material.
// A key can only be retired once.
func (k *KeyPair) Retire(at time.Time) error {
	if k.State != Current {
		return errors.Errorf("key %s is already %s", k.ID, k.State)
	}

	k.private.wipe()
	k.private = nil
	k.State = Historical
	k.RetiredAt = &at

	return nil
}

// Wipe erases the private material without changing state. Used to
// discard keys that were generated but never committed.
func (k *KeyPair) Wipe() {
	k.private.wipe()
	k.private = nil
}

func (k *KeyPair) Public() (crypto.PublicKey, error) {
	return decodePublic(k.Algorithm, k.Curve, k.PublicKey)
}

// Sign signs msg with the private key. The caller gets a signature in
// the form the matching verification method type expects.
func (k *KeyPair) Sign(msg []byte) ([]byte, error) {
	if k.Use != Signing {
		return nil, errors.Wrapf(ErrInvalidKeyParameters, "%s keys cannot sign", k.Use)
	}
	if !k.HasPrivateKey() {
		return nil, errors.Wrap(ErrNoPrivateKey, k.ID)
	}

	priv, err := decodePrivate(k.Algorithm, k.Curve, k.private.b)
	if err != nil {
		return nil, errors.Wrap(err, "decoding private key")
	}
	defer wipePrivate(priv)

	return signWith(k.Curve, priv, msg)
}

// Record is the persisted form of a KeyPair
type Record struct {
	ID         string    `msgpack:"i"`
	Algorithm  Algorithm `msgpack:"a"`
	Curve      Curve     `msgpack:"c,omitempty"`
	Size       int       `msgpack:"s,omitempty"`
	Use        Use       `msgpack:"u"`
	State      State     `msgpack:"st"`
	PublicKey  []byte    `msgpack:"pk"`
	PrivateKey []byte    `msgpack:"sk,omitempty"`
	CreatedAt  int64     `msgpack:"t"`
	RetiredAt  int64     `msgpack:"r,omitempty"`
}

// Record copies the key into its persisted form. The private bytes are
// a copy; call Wipe on the record once it has been encoded.
func (k *KeyPair) Record() Record {
	r := Record{
		ID:        k.ID,
		Algorithm: k.Algorithm,
		Curve:     k.Curve,
		Size:      k.Size,
		Use:       k.Use,
		State:     k.State,
		PublicKey: append([]byte(nil), k.PublicKey...),
		CreatedAt: k.CreatedAt.UnixNano(),
	}

	if k.RetiredAt != nil {
		r.RetiredAt = k.RetiredAt.UnixNano()
	}

	if k.HasPrivateKey() {
		r.PrivateKey = append([]byte(nil), k.private.b...)
	}

	return r
}

func (r *Record) Wipe() {
	memguard.WipeBytes(r.PrivateKey)
	r.PrivateKey = nil
}

// FromRecord rebuilds a KeyPair, taking a copy of the private bytes
func FromRecord(r Record) (*KeyPair, error) {
	if r.State != Current && r.State != Historical {
		return nil, errors.Errorf("key %s has unknown state %q", r.ID, r.State)
	}
	if r.State == Historical && len(r.PrivateKey) > 0 {
		return nil, errors.Errorf("historical key %s carries private material", r.ID)
	}

	k := &KeyPair{
		ID:        r.ID,
		Algorithm: r.Algorithm,
		Curve:     r.Curve,
		Size:      r.Size,
		Use:       r.Use,
		State:     r.State,
		PublicKey: append([]byte(nil), r.PublicKey...),
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
	}

	if r.RetiredAt != 0 {
		t := time.Unix(0, r.RetiredAt).UTC()
		k.RetiredAt = &t
	}

	if len(r.PrivateKey) > 0 {
		k.private = newSecret(append([]byte(nil), r.PrivateKey...))
	}

	return k, nil
}
