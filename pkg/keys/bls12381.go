package keys

import (
	"crypto"
	"io"

	"github.com/drand/kyber"
	bls "github.com/drand/kyber-bls12381"
	kysign "github.com/drand/kyber/sign"
	sig "github.com/drand/kyber/sign/bls"
	"github.com/drand/kyber/util/random"
	"github.com/pkg/errors"
)

var (
	_ crypto.PrivateKey = (*Bls12381PrivateKey)(nil)
	_ crypto.PublicKey  = (*Bls12381PublicKey)(nil)

	pairing = bls.NewBLS12381Suite()
)

// blsScheme keeps public keys on G2 to match Bls12381G2Key2020
func blsScheme() kysign.Scheme {
	return sig.NewSchemeOnG1(pairing)
}

type Bls12381PrivateKey struct {
	sk kyber.Scalar
}

func NewBls12381PrivateKey(rand io.Reader) *Bls12381PrivateKey {
	sk, _ := blsScheme().NewKeyPair(random.New(rand))
	return &Bls12381PrivateKey{sk}
}

func NewBls12381PrivateKeyFromBytes(b []byte) (*Bls12381PrivateKey, error) {
	sk := pairing.G2().Scalar()
	if err := sk.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(err, "unmarshalling bls scalar")
	}

	return &Bls12381PrivateKey{sk}, nil
}

func (b *Bls12381PrivateKey) Bytes() ([]byte, error) {
	return b.sk.MarshalBinary()
}

func (b *Bls12381PrivateKey) Sign(msg []byte) ([]byte, error) {
	return blsScheme().Sign(b.sk, msg)
}

func (b *Bls12381PrivateKey) Public() crypto.PublicKey {
	pk := pairing.G2().Point().Mul(b.sk, nil)
	return &Bls12381PublicKey{pk}
}

func (b *Bls12381PrivateKey) zero() {
	b.sk.Zero()
}

type Bls12381PublicKey struct {
	kyber.Point
}

func NewBls12381PublicKey(b []byte) (*Bls12381PublicKey, error) {
	pk := pairing.G2().Point()
	if err := pk.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(err, "unmarshalling bls point")
	}

	return &Bls12381PublicKey{pk}, nil
}

func (b *Bls12381PublicKey) Bytes() ([]byte, error) {
	return b.Point.MarshalBinary()
}

func (b *Bls12381PublicKey) Verify(signature, msg []byte) (bool, error) {
	if err := blsScheme().Verify(b.Point, msg, signature); err != nil {
		return false, err
	}

	return true, nil
}
