package did

import (
	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/did/w3cdid/cryptography"
	"github.com/tcfw/didkms/pkg/keys"
	"gopkg.in/square/go-jose.v2"
)

// RelationshipFor maps a key use onto the document relationship it serves.
// Unknown uses are rejected rather than defaulted.
func RelationshipFor(use keys.Use) (w3cdid.Relationship, error) {
	switch use {
	case keys.Signing:
		return w3cdid.Authentication, nil
	case keys.KeyAgreement:
		return w3cdid.KeyAgreement, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedKeyUse, "%q", use)
	}
}

// ToVerificationMethod describes the public half of kp as a method
// controlled by the given document
func ToVerificationMethod(kp *keys.KeyPair, controller string) (cryptography.VerificationMethod, error) {
	vm := cryptography.VerificationMethod{
		ID:         string(w3cdid.URL(controller).WithFragment(kp.ID)),
		Controller: controller,
	}

	switch {
	case kp.Algorithm == keys.ECDSA && kp.Curve == keys.Secp256k1:
		vm.Type = cryptography.EcdsaSecp256k1VerificationKey2019
	case kp.Algorithm == keys.ECDSA, kp.Algorithm == keys.RSA:
		pub, err := kp.Public()
		if err != nil {
			return vm, errors.Wrap(err, "decoding public key")
		}

		jwk, err := cryptography.NewJWK(pub, kp.ID)
		if err != nil {
			return vm, err
		}
		if kp.Use == keys.KeyAgreement {
			jwk.Use = "enc"
			jwk.Algorithm = string(jose.ECDH_ES)
		}

		vm.Type = cryptography.JsonWebKey2020
		vm.PublicKeyJwk = jwk
		return vm, nil
	case kp.Algorithm == keys.EdDSA && kp.Curve == keys.Ed25519:
		vm.Type = cryptography.Ed25519VerificationKey2018
	case kp.Algorithm == keys.EdDSA && kp.Curve == keys.X25519:
		vm.Type = cryptography.X25519KeyAgreementKey2019
	case kp.Algorithm == keys.BLS12381:
		vm.Type = cryptography.Bls12381G2Key2020
	default:
		return vm, errors.Wrapf(cryptography.ErrUnsupportedPublicKeyType, "%s/%s", kp.Algorithm, kp.Curve)
	}

	mb, err := cryptography.EncodeMultibase(kp.PublicKey)
	if err != nil {
		return vm, errors.Wrap(err, "encoding public key")
	}
	vm.PublicKeyMultibase = mb

	return vm, nil
}
