package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		alg   Algorithm
		use   Use
		size  int
		curve Curve
		err   error
	}{
		"ecdsa p256":           {alg: ECDSA, use: Signing, curve: P256},
		"ecdsa p384 agreement": {alg: ECDSA, use: KeyAgreement, curve: P384},
		"ecdsa secp256k1":      {alg: ECDSA, use: Signing, curve: Secp256k1},
		"ed25519":              {alg: EdDSA, use: Signing, curve: Ed25519},
		"x25519":               {alg: EdDSA, use: KeyAgreement, curve: X25519},
		"rsa 2048":             {alg: RSA, use: Signing, size: 2048},
		"rsa 4096":             {alg: RSA, use: Signing, size: 4096},
		"bls":                  {alg: BLS12381, use: Signing, curve: BLS12381G2},
		"ecdsa missing curve":  {alg: ECDSA, use: Signing, err: ErrInvalidKeyParameters},
		"ecdsa wrong curve":    {alg: ECDSA, use: Signing, curve: Ed25519, err: ErrInvalidKeyParameters},
		"ecdsa with size":      {alg: ECDSA, use: Signing, size: 256, curve: P256, err: ErrInvalidKeyParameters},
		"rsa missing size":     {alg: RSA, use: Signing, err: ErrInvalidKeyParameters},
		"rsa bad size":         {alg: RSA, use: Signing, size: 1024, err: ErrInvalidKeyParameters},
		"rsa with curve":       {alg: RSA, use: Signing, size: 2048, curve: P256, err: ErrInvalidKeyParameters},
		"rsa agreement":        {alg: RSA, use: KeyAgreement, size: 2048, err: ErrInvalidKeyParameters},
		"ed25519 agreement":    {alg: EdDSA, use: KeyAgreement, curve: Ed25519, err: ErrInvalidKeyParameters},
		"x25519 signing":       {alg: EdDSA, use: Signing, curve: X25519, err: ErrInvalidKeyParameters},
		"bls agreement":        {alg: BLS12381, use: KeyAgreement, curve: BLS12381G2, err: ErrInvalidKeyParameters},
		"unknown algorithm":    {alg: Algorithm("DSA"), use: Signing, size: 2048, err: ErrInvalidKeyParameters},
		"unknown use":          {alg: EdDSA, use: Use("Delegation"), curve: Ed25519, err: ErrUnknownUse},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := Validate(test.alg, test.use, test.size, test.curve)
			if test.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, test.err)
			}
		})
	}
}

func TestAlgorithmParameters(t *testing.T) {
	assert.True(t, ECDSA.UsesCurve())
	assert.False(t, ECDSA.UsesSize())
	assert.True(t, RSA.UsesSize())
	assert.False(t, RSA.UsesCurve())
	assert.False(t, Algorithm("x").Valid())
	assert.False(t, Algorithm("x").UsesCurve())

	assert.True(t, ECDSA.AcceptsCurve(Secp256k1))
	assert.False(t, EdDSA.AcceptsCurve(P256))
	assert.False(t, RSA.AcceptsCurve(P256))
	assert.True(t, RSA.AcceptsSize(3072))
	assert.False(t, ECDSA.AcceptsSize(256))
	assert.False(t, Algorithm("x").AcceptsSize(2048))
}

func TestParse(t *testing.T) {
	u, err := ParseUse("signing")
	assert.NoError(t, err)
	assert.Equal(t, Signing, u)

	u, err = ParseUse("KeyAgreement")
	assert.NoError(t, err)
	assert.Equal(t, KeyAgreement, u)

	_, err = ParseUse("delegation")
	assert.ErrorIs(t, err, ErrUnknownUse)

	a, err := ParseAlgorithm("eddsa")
	assert.NoError(t, err)
	assert.Equal(t, EdDSA, a)

	_, err = ParseAlgorithm("dsa")
	assert.ErrorIs(t, err, ErrInvalidKeyParameters)

	c, err := ParseCurve("p384")
	assert.NoError(t, err)
	assert.Equal(t, P384, c)

	c, err = ParseCurve("P-521")
	assert.NoError(t, err)
	assert.Equal(t, P521, c)

	_, err = ParseCurve("curve448")
	assert.ErrorIs(t, err, ErrInvalidKeyParameters)
}
