package w3cdid

import (
	"github.com/pkg/errors"
	"github.com/tcfw/didkms/internal/utils/logging"
	"github.com/tcfw/didkms/pkg/did/w3cdid/cryptography"
)

type SignatureValidator func(vm cryptography.VerificationMethod, sig []byte, msg []byte) (bool, error)

var (
	ErrNoValidSignatures = errors.New("no valid signatures")

	validators = map[cryptography.VerificationMethodType]SignatureValidator{
		cryptography.Ed25519VerificationKey2018:        cryptography.ValidateEd25519,
		cryptography.Bls12381G2Key2020:                 cryptography.ValidateBls12381,
		cryptography.EcdsaSecp256k1VerificationKey2019: cryptography.ValidateEcdsaSecp256k1,
		cryptography.JsonWebKey2020:                    cryptography.ValidateJsonWebKey,
	}
)

// signingRelationships are the lists whose methods may produce signatures
var signingRelationships = []Relationship{Authentication, AssertionMethod}

// Signed checks if the signature provided was signed by a key listed under
// authentication or assertionMethod. Historical methods are still tried so
// older signatures verify.
func (d *Document) Signed(signature []byte, msg []byte) error {
	if len(d.VerificationMethod) == 0 {
		return errors.New("no verification method specified")
	}

	signers := map[string]struct{}{}
	for _, rel := range signingRelationships {
		refs, _ := d.References(rel)
		for _, ref := range refs {
			signers[ref] = struct{}{}
		}
	}

	for _, vm := range d.VerificationMethod {
		if _, ok := signers[vm.ID]; !ok {
			continue
		}

		validator, ok := validators[vm.Type]
		if !ok {
			logging.Entry().Debugf("unsupported verification type: %s", vm.Type)
			continue
		}

		ok, err := validator(vm, signature, msg)
		if err != nil {
			logging.Entry().WithField("type", vm.Type).WithError(err).Debug("validating signature")
			continue
		}

		if ok {
			return nil
		}
	}

	return ErrNoValidSignatures
}
