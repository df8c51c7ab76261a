package w3cdid

import (
	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/did/w3cdid/cryptography"
)

var ErrInvalidDocument = errors.New("invalid document")

var relationships = []Relationship{
	Authentication,
	AssertionMethod,
	KeyAgreement,
	CapabilityInvocation,
	CapabilityDelegation,
}

// IsValid checks the document id, that method ids are unique and carry one
// form of key material, and that every relationship reference resolves
func (d *Document) IsValid() error {
	if !URL(d.ID).Valid() {
		return errors.Wrapf(ErrInvalidDocument, "id %q is not a DID", d.ID)
	}

	seen := make(map[string]struct{}, len(d.VerificationMethod))
	for _, vm := range d.VerificationMethod {
		if vm.ID == "" {
			return errors.Wrap(ErrInvalidDocument, "verification method without id")
		}
		if _, ok := seen[vm.ID]; ok {
			return errors.Wrapf(ErrInvalidDocument, "duplicate verification method %s", vm.ID)
		}
		seen[vm.ID] = struct{}{}

		if vm.Type == "" || vm.Controller == "" {
			return errors.Wrapf(ErrInvalidDocument, "verification method %s missing type or controller", vm.ID)
		}
		if err := validKeyMaterial(vm); err != nil {
			return err
		}
	}

	for _, rel := range relationships {
		refs, _ := d.References(rel)
		for _, ref := range refs {
			if _, ok := seen[ref]; !ok {
				return errors.Wrapf(ErrInvalidDocument, "%s references unknown method %s", rel, ref)
			}
		}
	}

	return nil
}

func validKeyMaterial(vm cryptography.VerificationMethod) error {
	hasJwk := vm.PublicKeyJwk != nil
	hasMb := vm.PublicKeyMultibase != ""

	if hasJwk == hasMb {
		return errors.Wrapf(ErrInvalidDocument, "verification method %s must carry exactly one public key form", vm.ID)
	}
	if hasJwk && !vm.PublicKeyJwk.IsPublic() {
		return errors.Wrapf(ErrInvalidDocument, "verification method %s exposes private key material", vm.ID)
	}

	return nil
}
