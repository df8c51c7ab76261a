package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"hash"
	"io"
	"math/big"

	ethCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/curve25519"
)

// X25519PrivateKey is a raw curve25519 scalar
type X25519PrivateKey []byte

// X25519PublicKey is a raw curve25519 point
type X25519PublicKey []byte

func (k X25519PrivateKey) Public() crypto.PublicKey {
	pub, err := curve25519.X25519(k, curve25519.Basepoint)
	if err != nil {
		return nil
	}
	return X25519PublicKey(pub)
}

func ellipticCurve(c Curve) (elliptic.Curve, error) {
	switch c {
	case P256:
		return elliptic.P256(), nil
	case P384:
		return elliptic.P384(), nil
	case P521:
		return elliptic.P521(), nil
	default:
		return nil, errors.Wrapf(ErrInvalidKeyParameters, "%s is not a NIST curve", c)
	}
}

// CurveHash is the digest ECDSA signatures are taken over for each NIST curve
func CurveHash(c Curve) (func() hash.Hash, crypto.Hash) {
	switch c {
	case P384:
		return sha512.New384, crypto.SHA384
	case P521:
		return sha512.New, crypto.SHA512
	default:
		return sha256.New, crypto.SHA256
	}
}

func generate(rnd io.Reader, alg Algorithm, size int, curve Curve) (crypto.PrivateKey, error) {
	switch alg {
	case ECDSA:
		if curve == Secp256k1 {
			return generateSecp256k1(rnd)
		}
		c, err := ellipticCurve(curve)
		if err != nil {
			return nil, err
		}
		return ecdsa.GenerateKey(c, rnd)
	case EdDSA:
		switch curve {
		case Ed25519:
			_, sk, err := ed25519.GenerateKey(rnd)
			return sk, err
		case X25519:
			sk := make([]byte, curve25519.ScalarSize)
			if _, err := io.ReadFull(rnd, sk); err != nil {
				return nil, errors.Wrap(err, "reading x25519 scalar")
			}
			return X25519PrivateKey(sk), nil
		}
	case RSA:
		return rsa.GenerateKey(rnd, size)
	case BLS12381:
		return NewBls12381PrivateKey(rnd), nil
	}

	return nil, errors.Wrapf(ErrInvalidKeyParameters, "cannot generate %s/%s", alg, curve)
}

func publicOf(priv crypto.PrivateKey) (crypto.PublicKey, error) {
	switch t := priv.(type) {
	case *ecdsa.PrivateKey:
		return &t.PublicKey, nil
	case ed25519.PrivateKey:
		return t.Public(), nil
	case X25519PrivateKey:
		pub := t.Public()
		if pub == nil {
			return nil, errors.New("deriving x25519 public key")
		}
		return pub, nil
	case *rsa.PrivateKey:
		return &t.PublicKey, nil
	case *Bls12381PrivateKey:
		return t.Public(), nil
	default:
		return nil, errors.Errorf("unsupported private key type: %T", t)
	}
}

func encodePublic(alg Algorithm, curve Curve, pub crypto.PublicKey) ([]byte, error) {
	switch t := pub.(type) {
	case *ecdsa.PublicKey:
		if curve == Secp256k1 {
			return ethCrypto.FromECDSAPub(t), nil
		}
		return x509.MarshalPKIXPublicKey(t)
	case *rsa.PublicKey:
		return x509.MarshalPKIXPublicKey(t)
	case ed25519.PublicKey:
		return append([]byte(nil), t...), nil
	case X25519PublicKey:
		return append([]byte(nil), t...), nil
	case *Bls12381PublicKey:
		return t.Bytes()
	default:
		return nil, errors.Errorf("unsupported public key type: %T", t)
	}
}

func decodePublic(alg Algorithm, curve Curve, b []byte) (crypto.PublicKey, error) {
	switch alg {
	case ECDSA:
		if curve == Secp256k1 {
			return NewSecp256k1PublicKey(b)
		}
		pub, err := x509.ParsePKIXPublicKey(b)
		if err != nil {
			return nil, errors.Wrap(err, "parsing ecdsa public key")
		}
		ec, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, errors.Errorf("expected ecdsa public key, got %T", pub)
		}
		return ec, nil
	case RSA:
		pub, err := x509.ParsePKIXPublicKey(b)
		if err != nil {
			return nil, errors.Wrap(err, "parsing rsa public key")
		}
		rk, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, errors.Errorf("expected rsa public key, got %T", pub)
		}
		return rk, nil
	case EdDSA:
		switch curve {
		case Ed25519:
			if len(b) != ed25519.PublicKeySize {
				return nil, errors.New("invalid ed25519 public key length")
			}
			return ed25519.PublicKey(append([]byte(nil), b...)), nil
		case X25519:
			if len(b) != curve25519.PointSize {
				return nil, errors.New("invalid x25519 public key length")
			}
			return X25519PublicKey(append([]byte(nil), b...)), nil
		}
	case BLS12381:
		return NewBls12381PublicKey(b)
	}

	return nil, errors.Errorf("unsupported key type %s/%s", alg, curve)
}

func encodePrivate(alg Algorithm, curve Curve, priv crypto.PrivateKey) ([]byte, error) {
	switch t := priv.(type) {
	case *ecdsa.PrivateKey:
		if curve == Secp256k1 {
			return ethCrypto.FromECDSA(t), nil
		}
		return x509.MarshalPKCS8PrivateKey(t)
	case *rsa.PrivateKey:
		return x509.MarshalPKCS8PrivateKey(t)
	case ed25519.PrivateKey:
		return x509.MarshalPKCS8PrivateKey(t)
	case X25519PrivateKey:
		return append([]byte(nil), t...), nil
	case *Bls12381PrivateKey:
		return t.Bytes()
	default:
		return nil, errors.Errorf("unsupported private key type: %T", t)
	}
}

func decodePrivate(alg Algorithm, curve Curve, b []byte) (crypto.PrivateKey, error) {
	switch {
	case alg == ECDSA && curve == Secp256k1:
		return ethCrypto.ToECDSA(b)
	case alg == EdDSA && curve == X25519:
		return X25519PrivateKey(append([]byte(nil), b...)), nil
	case alg == BLS12381:
		return NewBls12381PrivateKeyFromBytes(b)
	}

	priv, err := x509.ParsePKCS8PrivateKey(b)
	if err != nil {
		return nil, errors.Wrap(err, "parsing pkcs8 private key")
	}

	return priv, nil
}

func signWith(curve Curve, priv crypto.PrivateKey, msg []byte) ([]byte, error) {
	switch t := priv.(type) {
	case ed25519.PrivateKey:
		return ed25519.Sign(t, msg), nil
	case *ecdsa.PrivateKey:
		if curve == Secp256k1 {
			return signSecp256k1(t, msg)
		}
		hf, _ := CurveHash(curve)
		h := hf()
		h.Write(msg)
		return ecdsa.SignASN1(rand.Reader, t, h.Sum(nil))
	case *rsa.PrivateKey:
		h := sha256.Sum256(msg)
		return rsa.SignPKCS1v15(rand.Reader, t, crypto.SHA256, h[:])
	case *Bls12381PrivateKey:
		return t.Sign(msg)
	case X25519PrivateKey:
		return nil, errors.Wrap(ErrInvalidKeyParameters, "key agreement keys cannot sign")
	default:
		return nil, errors.Errorf("unknown private key type: %T", t)
	}
}

// wipePrivate zeroes the parsed form of a private key once it is no
// longer needed
func wipePrivate(priv crypto.PrivateKey) {
	switch t := priv.(type) {
	case ed25519.PrivateKey:
		zero(t)
	case X25519PrivateKey:
		zero(t)
	case *ecdsa.PrivateKey:
		zeroInt(t.D)
	case *rsa.PrivateKey:
		zeroInt(t.D)
		for _, p := range t.Primes {
			zeroInt(p)
		}
		zeroInt(t.Precomputed.Dp)
		zeroInt(t.Precomputed.Dq)
		zeroInt(t.Precomputed.Qinv)
	case *Bls12381PrivateKey:
		t.zero()
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func zeroInt(i *big.Int) {
	if i == nil {
		return
	}
	words := i.Bits()
	for j := range words {
		words[j] = 0
	}
	i.SetInt64(0)
}
