package w3cdid

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/did/w3cdid/cryptography"
)

// Relationship names a verification relationship list in a document
type Relationship string

const (
	Authentication       Relationship = "authentication"
	AssertionMethod      Relationship = "assertionMethod"
	KeyAgreement         Relationship = "keyAgreement"
	CapabilityInvocation Relationship = "capabilityInvocation"
	CapabilityDelegation Relationship = "capabilityDelegation"
)

var (
	ErrUnknownRelationship = errors.New("unknown verification relationship")
	ErrMethodConflict      = errors.New("verification method id already in use by a different key")
	ErrMissingMethodID     = errors.New("verification method has no id")

	DefaultContext = []string{
		"https://www.w3.org/ns/did/v1",
		"https://w3id.org/security/suites/jws-2020/v1",
	}
)

type Document struct {
	Context              []string                          `json:"@context"`
	ID                   string                            `json:"id"`
	AlsoKnownAs          []string                          `json:"alsoKnownAs,omitempty"`
	Controller           []string                          `json:"controller,omitempty"`
	VerificationMethod   []cryptography.VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication       []string                          `json:"authentication,omitempty"`
	AssertionMethod      []string                          `json:"assertionMethod,omitempty"`
	KeyAgreement         []string                          `json:"keyAgreement,omitempty"`
	CapabilityInvocation []string                          `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []string                          `json:"capabilityDelegation,omitempty"`
	Service              []Service                         `json:"service,omitempty"`
	Updated              *time.Time                        `json:"updated,omitempty"`
}

type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// NewDocument creates an empty document controlled by itself unless
// other controllers are given
func NewDocument(id string, controllers ...string) *Document {
	if len(controllers) == 0 {
		controllers = []string{id}
	}

	return &Document{
		Context:    append([]string(nil), DefaultContext...),
		ID:         id,
		Controller: controllers,
	}
}

func (d *Document) relationship(rel Relationship) (*[]string, error) {
	switch rel {
	case Authentication:
		return &d.Authentication, nil
	case AssertionMethod:
		return &d.AssertionMethod, nil
	case KeyAgreement:
		return &d.KeyAgreement, nil
	case CapabilityInvocation:
		return &d.CapabilityInvocation, nil
	case CapabilityDelegation:
		return &d.CapabilityDelegation, nil
	default:
		return nil, errors.Wrapf(ErrUnknownRelationship, "%q", rel)
	}
}

// AddVerificationMethod appends the method if its id is not already in the
// document, then references it from each relationship it is not yet listed
// in. Adding the same method and relationship again is a no-op.
func (d *Document) AddVerificationMethod(vm cryptography.VerificationMethod, rels ...Relationship) error {
	if vm.ID == "" {
		return ErrMissingMethodID
	}

	lists := make([]*[]string, 0, len(rels))
	for _, rel := range rels {
		l, err := d.relationship(rel)
		if err != nil {
			return err
		}
		lists = append(lists, l)
	}

	existing, ok := d.Method(vm.ID)
	if ok && !existing.Equal(vm) {
		return errors.Wrap(ErrMethodConflict, vm.ID)
	}
	if !ok {
		d.VerificationMethod = append(d.VerificationMethod, vm)
	}

	for _, l := range lists {
		if !contains(*l, vm.ID) {
			*l = append(*l, vm.ID)
		}
	}

	return nil
}

// Method finds a verification method by id
func (d *Document) Method(id string) (cryptography.VerificationMethod, bool) {
	for _, vm := range d.VerificationMethod {
		if vm.ID == id {
			return vm, true
		}
	}

	return cryptography.VerificationMethod{}, false
}

// References lists the method ids in a relationship, in insertion order
func (d *Document) References(rel Relationship) ([]string, error) {
	l, err := d.relationship(rel)
	if err != nil {
		return nil, err
	}

	return append([]string(nil), (*l)...), nil
}

func (d *Document) Touch(at time.Time) {
	at = at.UTC()
	d.Updated = &at
}

func contains(l []string, s string) bool {
	for _, e := range l {
		if e == s {
			return true
		}
	}
	return false
}
