package cryptography

import (
	"github.com/multiformats/go-multibase"
	"github.com/pkg/errors"
)

func decodeMultibase(mb string) ([]byte, error) {
	if mb == "" {
		return nil, errors.Wrap(ErrInvalidPublicKey, "empty multibase value")
	}

	_, d, err := multibase.Decode(mb)
	return d, err
}

// EncodeMultibase encodes raw public key bytes as base58btc
func EncodeMultibase(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", ErrInvalidPublicKeyLength
	}

	return multibase.Encode(multibase.Base58BTC, raw)
}
