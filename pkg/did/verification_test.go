package did

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/did/w3cdid/cryptography"
	"github.com/tcfw/didkms/pkg/keys"
)

func TestRelationshipFor(t *testing.T) {
	rel, err := RelationshipFor(keys.Signing)
	assert.NoError(t, err)
	assert.Equal(t, w3cdid.Authentication, rel)

	rel, err = RelationshipFor(keys.KeyAgreement)
	assert.NoError(t, err)
	assert.Equal(t, w3cdid.KeyAgreement, rel)

	_, err = RelationshipFor(keys.Use("Delegation"))
	assert.ErrorIs(t, err, ErrUnsupportedKeyUse)
}

func TestToVerificationMethod(t *testing.T) {
	tests := map[string]struct {
		alg   keys.Algorithm
		use   keys.Use
		size  int
		curve keys.Curve
		typ   cryptography.VerificationMethodType
		jwk   bool
	}{
		"P-256":     {alg: keys.ECDSA, use: keys.Signing, curve: keys.P256, typ: cryptography.JsonWebKey2020, jwk: true},
		"P-384":     {alg: keys.ECDSA, use: keys.KeyAgreement, curve: keys.P384, typ: cryptography.JsonWebKey2020, jwk: true},
		"secp256k1": {alg: keys.ECDSA, use: keys.Signing, curve: keys.Secp256k1, typ: cryptography.EcdsaSecp256k1VerificationKey2019},
		"Ed25519":   {alg: keys.EdDSA, use: keys.Signing, curve: keys.Ed25519, typ: cryptography.Ed25519VerificationKey2018},
		"X25519":    {alg: keys.EdDSA, use: keys.KeyAgreement, curve: keys.X25519, typ: cryptography.X25519KeyAgreementKey2019},
		"RSA":       {alg: keys.RSA, use: keys.Signing, size: 2048, typ: cryptography.JsonWebKey2020, jwk: true},
		"BLS":       {alg: keys.BLS12381, use: keys.Signing, curve: keys.BLS12381G2, typ: cryptography.Bls12381G2Key2020},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			kp := newKey(t, test.alg, test.use, test.size, test.curve)

			vm, err := ToVerificationMethod(kp, "did:example:123")
			assert.NoError(t, err)
			assert.Equal(t, "did:example:123#"+kp.ID, vm.ID)
			assert.Equal(t, "did:example:123", vm.Controller)
			assert.Equal(t, test.typ, vm.Type)

			if test.jwk {
				assert.NotNil(t, vm.PublicKeyJwk)
				assert.True(t, vm.PublicKeyJwk.IsPublic())
				assert.Empty(t, vm.PublicKeyMultibase)
			} else {
				assert.Nil(t, vm.PublicKeyJwk)
				assert.NotEmpty(t, vm.PublicKeyMultibase)
			}
		})
	}
}

func TestToVerificationMethodSignatures(t *testing.T) {
	for _, curve := range []keys.Curve{keys.P256, keys.Secp256k1} {
		kp := newKey(t, keys.ECDSA, keys.Signing, 0, curve)

		vm, err := ToVerificationMethod(kp, "did:example:123")
		if err != nil {
			t.Fatal(err)
		}

		doc := w3cdid.NewDocument("did:example:123")
		if err := doc.AddVerificationMethod(vm, w3cdid.Authentication); err != nil {
			t.Fatal(err)
		}

		msg := []byte("msg")
		sig, err := kp.Sign(msg)
		if err != nil {
			t.Fatal(err)
		}

		assert.NoError(t, doc.Signed(sig, msg), string(curve))
	}
}

func TestToVerificationMethodAgreementJWK(t *testing.T) {
	kp := newKey(t, keys.ECDSA, keys.KeyAgreement, 0, keys.P256)

	vm, err := ToVerificationMethod(kp, "did:example:123")
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "enc", vm.PublicKeyJwk.Use)
	assert.Equal(t, "ECDH-ES", vm.PublicKeyJwk.Algorithm)

	sig := newKey(t, keys.ECDSA, keys.Signing, 0, keys.P256)

	vm, err = ToVerificationMethod(sig, "did:example:123")
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "sig", vm.PublicKeyJwk.Use)
	assert.Equal(t, "ES256", vm.PublicKeyJwk.Algorithm)
}
