package keys

import (
	"strings"

	"github.com/pkg/errors"
)

// Use determines which document relationship a key serves
type Use string

const (
	Signing      Use = "Signing"
	KeyAgreement Use = "KeyAgreement"
)

// Algorithm is the key family
type Algorithm string

const (
	ECDSA    Algorithm = "ECDSA"
	EdDSA    Algorithm = "EdDSA"
	RSA      Algorithm = "RSA"
	BLS12381 Algorithm = "BLS12381"
)

type Curve string

const (
	P256       Curve = "P-256"
	P384       Curve = "P-384"
	P521       Curve = "P-521"
	Secp256k1  Curve = "secp256k1"
	Ed25519    Curve = "Ed25519"
	X25519     Curve = "X25519"
	BLS12381G2 Curve = "BLS12381G2"
)

type State string

const (
	Current    State = "Current"
	Historical State = "Historical"
)

var (
	ErrInvalidKeyParameters = errors.New("invalid key parameters")
	ErrUnknownUse           = errors.New("unknown key use")
	ErrNoPrivateKey         = errors.New("key has no private material")
)

type algorithmSpec struct {
	curves map[Curve][]Use
	sizes  map[int]struct{}
}

var algorithms = map[Algorithm]algorithmSpec{
	ECDSA: {curves: map[Curve][]Use{
		P256:      {Signing, KeyAgreement},
		P384:      {Signing, KeyAgreement},
		P521:      {Signing, KeyAgreement},
		Secp256k1: {Signing, KeyAgreement},
	}},
	EdDSA: {curves: map[Curve][]Use{
		Ed25519: {Signing},
		X25519:  {KeyAgreement},
	}},
	RSA: {sizes: map[int]struct{}{
		2048: {},
		3072: {},
		4096: {},
	}},
	BLS12381: {curves: map[Curve][]Use{
		BLS12381G2: {Signing},
	}},
}

// UsesCurve reports whether the algorithm is parameterised by a curve
// rather than by a bit length
func (a Algorithm) UsesCurve() bool {
	spec, ok := algorithms[a]
	return ok && spec.curves != nil
}

// UsesSize reports whether the algorithm is parameterised by a bit length
func (a Algorithm) UsesSize() bool {
	spec, ok := algorithms[a]
	return ok && spec.sizes != nil
}

// AcceptsCurve reports whether c is one of the algorithm's curves
func (a Algorithm) AcceptsCurve(c Curve) bool {
	_, ok := algorithms[a].curves[c]
	return ok
}

// AcceptsSize reports whether n is one of the algorithm's key sizes
func (a Algorithm) AcceptsSize(n int) bool {
	_, ok := algorithms[a].sizes[n]
	return ok
}

func (a Algorithm) Valid() bool {
	_, ok := algorithms[a]
	return ok
}

func (u Use) Valid() bool {
	return u == Signing || u == KeyAgreement
}

func ParseUse(s string) (Use, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "signing", "sig", "authentication":
		return Signing, nil
	case "keyagreement", "agreement", "enc":
		return KeyAgreement, nil
	default:
		return "", errors.Wrapf(ErrUnknownUse, "%q", s)
	}
}

func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ECDSA", "EC", "ES":
		return ECDSA, nil
	case "EDDSA", "OKP":
		return EdDSA, nil
	case "RSA":
		return RSA, nil
	case "BLS12381", "BLS":
		return BLS12381, nil
	default:
		return "", errors.Wrapf(ErrInvalidKeyParameters, "unknown algorithm %q", s)
	}
}

func ParseCurve(s string) (Curve, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p-256", "p256", "secp256r1":
		return P256, nil
	case "p-384", "p384", "secp384r1":
		return P384, nil
	case "p-521", "p521", "secp521r1":
		return P521, nil
	case "secp256k1":
		return Secp256k1, nil
	case "ed25519":
		return Ed25519, nil
	case "x25519":
		return X25519, nil
	case "bls12381g2", "bls12-381-g2":
		return BLS12381G2, nil
	default:
		return "", errors.Wrapf(ErrInvalidKeyParameters, "unknown curve %q", s)
	}
}

// Validate checks the parameter combination is one the provider can generate
func Validate(alg Algorithm, use Use, size int, curve Curve) error {
	if !use.Valid() {
		return errors.Wrapf(ErrUnknownUse, "%q", use)
	}

	spec, ok := algorithms[alg]
	if !ok {
		return errors.Wrapf(ErrInvalidKeyParameters, "unknown algorithm %q", alg)
	}

	if spec.sizes != nil {
		if curve != "" {
			return errors.Wrapf(ErrInvalidKeyParameters, "%s does not take a curve", alg)
		}
		if size == 0 {
			return errors.Wrapf(ErrInvalidKeyParameters, "%s requires a key size", alg)
		}
		if _, ok := spec.sizes[size]; !ok {
			return errors.Wrapf(ErrInvalidKeyParameters, "%s does not support size %d", alg, size)
		}
		if use != Signing {
			return errors.Wrapf(ErrInvalidKeyParameters, "%s keys cannot be used for %s", alg, use)
		}
		return nil
	}

	if size != 0 {
		return errors.Wrapf(ErrInvalidKeyParameters, "%s does not take a key size", alg)
	}
	if curve == "" {
		return errors.Wrapf(ErrInvalidKeyParameters, "%s requires a curve", alg)
	}

	uses, ok := spec.curves[curve]
	if !ok {
		return errors.Wrapf(ErrInvalidKeyParameters, "curve %s is not compatible with %s", curve, alg)
	}

	for _, u := range uses {
		if u == use {
			return nil
		}
	}

	return errors.Wrapf(ErrInvalidKeyParameters, "%s %s keys cannot be used for %s", alg, curve, use)
}
