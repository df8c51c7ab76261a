package cryptography

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"

	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/keys"
	"gopkg.in/square/go-jose.v2"
)

const thumbprintHash = crypto.SHA256

// NewJWK wraps an ECDSA or RSA public key as a JWK with the given key id
func NewJWK(pub crypto.PublicKey, kid string) (*jose.JSONWebKey, error) {
	jwk := &jose.JSONWebKey{Key: pub, KeyID: kid, Use: "sig"}

	switch t := pub.(type) {
	case *ecdsa.PublicKey:
		switch keys.Curve(t.Curve.Params().Name) {
		case keys.P256:
			jwk.Algorithm = string(jose.ES256)
		case keys.P384:
			jwk.Algorithm = string(jose.ES384)
		case keys.P521:
			jwk.Algorithm = string(jose.ES512)
		default:
			return nil, errors.Wrapf(ErrUnsupportedPublicKeyType, "curve %s", t.Curve.Params().Name)
		}
	case *rsa.PublicKey:
		jwk.Algorithm = string(jose.RS256)
	default:
		return nil, errors.Wrapf(ErrUnsupportedPublicKeyType, "%T", t)
	}

	if !jwk.Valid() {
		return nil, ErrInvalidPublicKey
	}

	return jwk, nil
}

// ValidateJsonWebKey checks ASN.1 ECDSA signatures over the curve's digest
// and PKCS#1 v1.5 RSA signatures over SHA-256
func ValidateJsonWebKey(vm VerificationMethod, signature []byte, msg []byte) (bool, error) {
	if vm.PublicKeyJwk == nil {
		return false, errors.Wrap(ErrInvalidPublicKey, "missing publicKeyJwk")
	}

	switch pub := vm.PublicKeyJwk.Key.(type) {
	case *ecdsa.PublicKey:
		hf, _ := keys.CurveHash(keys.Curve(pub.Curve.Params().Name))
		h := hf()
		h.Write(msg)
		return ecdsa.VerifyASN1(pub, h.Sum(nil), signature), nil
	case *rsa.PublicKey:
		dig := sha256.Sum256(msg)
		if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, dig[:], signature); err != nil {
			return false, nil
		}
		return true, nil
	default:
		return false, errors.Wrapf(ErrInvalidPublicKeyType, "%T", pub)
	}
}
