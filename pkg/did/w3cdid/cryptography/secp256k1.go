package cryptography

import (
	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/keys"
)

func ValidateEcdsaSecp256k1(vm VerificationMethod, signature []byte, msg []byte) (bool, error) {
	pkbytes, err := decodeMultibase(vm.PublicKeyMultibase)
	if err != nil {
		return false, errors.Wrap(err, "decoding multibase")
	}

	pub, err := keys.NewSecp256k1PublicKey(pkbytes)
	if err != nil {
		return false, errors.Wrap(err, "unmarshalling public key")
	}

	return keys.VerifySecp256k1(pub, msg, signature), nil
}
