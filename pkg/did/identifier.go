package did

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/keys"
)

// Identifier is the aggregate of every key an identifier has held and its
// public document. Keys are kept in creation order and never removed.
type Identifier struct {
	ID       string
	Method   string
	Owner    Principal
	Keys     []*keys.KeyPair
	Document *w3cdid.Document

	// Version is the optimistic concurrency token maintained by stores
	Version uint64
}

func NewIdentifier(method, id string, owner Principal) (*Identifier, error) {
	if id == "" || method == "" {
		return nil, errors.Wrap(ErrInvalidIdentifier, "method and id are required")
	}
	if owner == "" {
		return nil, errors.Wrap(ErrInvalidIdentifier, "owner is required")
	}

	i := &Identifier{
		ID:     id,
		Method: method,
		Owner:  owner,
	}
	i.Document = w3cdid.NewDocument(i.DocumentID())

	if !w3cdid.URL(i.DocumentID()).Valid() {
		return nil, errors.Wrapf(ErrInvalidIdentifier, "%q is not a valid DID", i.DocumentID())
	}

	return i, nil
}

// DocumentID is the canonical DID of the identifier
func (i *Identifier) DocumentID() string {
	return string(w3cdid.NewURL(i.Method, i.ID))
}

func (i *Identifier) ManagedBy(p Principal) bool {
	return p != "" && p == i.Owner
}

// CurrentKey returns the single Current key for use. More than one is an
// invariant violation and reported as such.
func (i *Identifier) CurrentKey(use keys.Use) (*keys.KeyPair, error) {
	var found *keys.KeyPair

	for _, k := range i.Keys {
		if k.Use != use || k.State != keys.Current {
			continue
		}
		if found != nil {
			return nil, errors.Wrapf(ErrDuplicateCurrentKey, "%s has %s and %s", use, found.ID, k.ID)
		}
		found = k
	}

	if found == nil {
		return nil, errors.Wrapf(ErrNoCurrentKey, "%s", use)
	}

	return found, nil
}

// RetireCurrentKey moves the Current key for use to Historical, erasing its
// private material
func (i *Identifier) RetireCurrentKey(use keys.Use, at time.Time) error {
	k, err := i.CurrentKey(use)
	if err != nil {
		return err
	}

	return k.Retire(at.UTC())
}

// AddKey appends a new Current key. Retire the previous key first.
func (i *Identifier) AddKey(kp *keys.KeyPair) error {
	if kp.State != keys.Current {
		return errors.Wrap(ErrKeyNotCurrent, kp.ID)
	}

	for _, k := range i.Keys {
		if k.ID == kp.ID {
			return errors.Wrap(ErrDuplicateKeyID, kp.ID)
		}
	}

	_, err := i.CurrentKey(kp.Use)
	switch {
	case err == nil:
		return errors.Wrapf(ErrDuplicateCurrentKey, "%s already has a current key", kp.Use)
	case !errors.Is(err, ErrNoCurrentKey):
		return err
	}

	i.Keys = append(i.Keys, kp)

	return nil
}

// Enroll provisions a key for a use that has none yet, publishing its
// verification method in the document
func (i *Identifier) Enroll(kp *keys.KeyPair, at time.Time) error {
	rel, err := RelationshipFor(kp.Use)
	if err != nil {
		return err
	}

	vm, err := ToVerificationMethod(kp, i.DocumentID())
	if err != nil {
		return err
	}

	if err := i.AddKey(kp); err != nil {
		return err
	}

	if err := i.Document.AddVerificationMethod(vm, rel); err != nil {
		i.Keys = i.Keys[:len(i.Keys)-1]
		return err
	}

	i.Document.Touch(at)

	return nil
}

// KeysFor lists the keys ever held for use, oldest first
func (i *Identifier) KeysFor(use keys.Use) []*keys.KeyPair {
	var ks []*keys.KeyPair

	for _, k := range i.Keys {
		if k.Use == use {
			ks = append(ks, k)
		}
	}

	return ks
}

// Validate checks the aggregate invariants: the document belongs to this
// identifier, each use has at most one Current key whose method is listed
// under the matching relationship, and no Historical key holds private
// material
func (i *Identifier) Validate() error {
	if i.Document == nil {
		return errors.Wrap(ErrInvalidIdentifier, "missing document")
	}
	if i.Document.ID != i.DocumentID() {
		return errors.Wrapf(ErrInvalidIdentifier, "document id %s does not match %s", i.Document.ID, i.DocumentID())
	}
	if err := i.Document.IsValid(); err != nil {
		return err
	}

	ids := make(map[string]struct{}, len(i.Keys))
	current := map[keys.Use]string{}

	for _, k := range i.Keys {
		if _, ok := ids[k.ID]; ok {
			return errors.Wrap(ErrDuplicateKeyID, k.ID)
		}
		ids[k.ID] = struct{}{}

		if k.State == keys.Historical {
			if k.HasPrivateKey() {
				return errors.Wrapf(ErrInvalidIdentifier, "historical key %s holds private material", k.ID)
			}
			continue
		}

		if prev, ok := current[k.Use]; ok {
			return errors.Wrapf(ErrDuplicateCurrentKey, "%s has %s and %s", k.Use, prev, k.ID)
		}
		current[k.Use] = k.ID
	}

	for use, id := range current {
		rel, err := RelationshipFor(use)
		if err != nil {
			return err
		}

		refs, err := i.Document.References(rel)
		if err != nil {
			return err
		}

		vmID := string(w3cdid.URL(i.DocumentID()).WithFragment(id))
		if !contains(refs, vmID) {
			return errors.Wrapf(ErrInvalidIdentifier, "current key %s is not listed under %s", id, rel)
		}
	}

	return nil
}

// Wipe erases the private material of every key held in memory
func (i *Identifier) Wipe() {
	for _, k := range i.Keys {
		k.Wipe()
	}
}

func contains(l []string, s string) bool {
	for _, e := range l {
		if e == s {
			return true
		}
	}
	return false
}
