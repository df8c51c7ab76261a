package keys

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"io"

	ethCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

func generateSecp256k1(rand io.Reader) (*ecdsa.PrivateKey, error) {
	pk, err := ecdsa.GenerateKey(ethCrypto.S256(), rand)
	if err != nil {
		return nil, errors.Wrap(err, "generating secp256k1 key")
	}

	return pk, nil
}

func NewSecp256k1PublicKey(d []byte) (*ecdsa.PublicKey, error) {
	pub, err := ethCrypto.UnmarshalPubkey(d)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshalling secp256k1 pub key")
	}

	return pub, nil
}

// signSecp256k1 returns the 64 byte R||S form over a sha256 digest
func signSecp256k1(pk *ecdsa.PrivateKey, msg []byte) ([]byte, error) {
	dig := sha256.Sum256(msg)

	s, err := ethCrypto.Sign(dig[:], pk)
	if err != nil {
		return nil, errors.Wrap(err, "signing with secp256k1")
	}

	return s[:64], nil
}

func VerifySecp256k1(pub *ecdsa.PublicKey, msg, sig []byte) bool {
	dig := sha256.Sum256(msg)
	if len(sig) == 65 {
		sig = sig[:64]
	}

	return ethCrypto.VerifySignature(ethCrypto.FromECDSAPub(pub), dig[:], sig)
}
