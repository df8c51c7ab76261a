package cryptography

import (
	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/keys"
)

func ValidateBls12381(vm VerificationMethod, signature []byte, msg []byte) (bool, error) {
	pkbytes, err := decodeMultibase(vm.PublicKeyMultibase)
	if err != nil {
		return false, errors.Wrap(err, "decoding multibase")
	}

	pk, err := keys.NewBls12381PublicKey(pkbytes)
	if err != nil {
		return false, err
	}

	return pk.Verify(signature, msg)
}
