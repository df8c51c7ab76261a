package storage

import (
	"encoding/json"

	"github.com/awnumar/memguard"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/keys"
	"github.com/vmihailenco/msgpack/v5"
)

const CIDEncoding = cid.Raw

// Record is the persisted form of an Identifier. The document is kept as
// its JSON encoding so it decodes straight back into a w3cdid.Document.
type Record struct {
	ID       string        `msgpack:"i"`
	Method   string        `msgpack:"m"`
	Owner    string        `msgpack:"o"`
	Keys     []keys.Record `msgpack:"k"`
	Document []byte        `msgpack:"d"`
	Version  uint64        `msgpack:"v"`
}

// Snapshot is one committed version of an identifier's public document
type Snapshot struct {
	Version  uint64           `json:"version" msgpack:"v"`
	CID      string           `json:"cid" msgpack:"c"`
	Document *w3cdid.Document `json:"document" msgpack:"-"`
}

// Encode serializes the aggregate. Transient copies of private key bytes
// are wiped once encoded; the returned bytes still carry them.
func Encode(ident *did.Identifier) ([]byte, error) {
	if ident.Document == nil {
		return nil, errors.New("identifier has no document")
	}

	doc, err := json.Marshal(ident.Document)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling document")
	}

	r := Record{
		ID:       ident.ID,
		Method:   ident.Method,
		Owner:    string(ident.Owner),
		Keys:     make([]keys.Record, 0, len(ident.Keys)),
		Document: doc,
		Version:  ident.Version,
	}

	for _, k := range ident.Keys {
		r.Keys = append(r.Keys, k.Record())
	}
	defer func() {
		for i := range r.Keys {
			r.Keys[i].Wipe()
		}
	}()

	b, err := msgpack.Marshal(&r)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling identifier")
	}

	return b, nil
}

// Decode rebuilds a fresh aggregate from its encoded form
func Decode(b []byte) (*did.Identifier, error) {
	r := Record{}
	if err := msgpack.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrap(err, "unmarshalling identifier")
	}
	defer func() {
		for i := range r.Keys {
			r.Keys[i].Wipe()
		}
	}()

	doc := &w3cdid.Document{}
	if err := json.Unmarshal(r.Document, doc); err != nil {
		return nil, errors.Wrap(err, "unmarshalling document")
	}

	ident := &did.Identifier{
		ID:       r.ID,
		Method:   r.Method,
		Owner:    did.Principal(r.Owner),
		Keys:     make([]*keys.KeyPair, 0, len(r.Keys)),
		Document: doc,
		Version:  r.Version,
	}

	for _, kr := range r.Keys {
		k, err := keys.FromRecord(kr)
		if err != nil {
			ident.Wipe()
			return nil, errors.Wrap(err, "decoding key")
		}
		ident.Keys = append(ident.Keys, k)
	}

	return ident, nil
}

// StoredVersion reads only the version of an encoded aggregate
func StoredVersion(b []byte) (uint64, error) {
	r := struct {
		Version uint64 `msgpack:"v"`
	}{}
	if err := msgpack.Unmarshal(b, &r); err != nil {
		return 0, errors.Wrap(err, "unmarshalling identifier version")
	}
	return r.Version, nil
}

// Wipe overwrites an encoded aggregate that is being replaced
func Wipe(b []byte) {
	memguard.WipeBytes(b)
}

// SnapshotOf content addresses the public document of an aggregate
func SnapshotOf(ident *did.Identifier) (Snapshot, []byte, error) {
	doc, err := json.Marshal(ident.Document)
	if err != nil {
		return Snapshot{}, nil, errors.Wrap(err, "marshalling document")
	}

	c, err := SnapshotID(doc)
	if err != nil {
		return Snapshot{}, nil, err
	}

	return Snapshot{Version: ident.Version, CID: c.String(), Document: ident.Document}, doc, nil
}

func SnapshotID(d []byte) (cid.Cid, error) {
	h, err := multihash.Sum(d, multihash.SHA3_256, multihash.DefaultLengths[multihash.SHA3_256])
	if err != nil {
		return cid.Undef, errors.Wrap(err, "hashing snapshot")
	}

	return cid.NewCidV1(CIDEncoding, h), nil
}

// DecodeSnapshot restores the document of a stored snapshot
func DecodeSnapshot(version uint64, c string, doc []byte) (Snapshot, error) {
	d := &w3cdid.Document{}
	if err := json.Unmarshal(doc, d); err != nil {
		return Snapshot{}, errors.Wrap(err, "unmarshalling snapshot document")
	}

	return Snapshot{Version: version, CID: c, Document: d}, nil
}

// Prepare validates the aggregate and stamps the version it will be stored
// at. The previous version is returned so a failed write can restore it.
func Prepare(ident *did.Identifier) (uint64, error) {
	if err := ident.Validate(); err != nil {
		return 0, errors.Wrap(err, "refusing to store invalid identifier")
	}

	prev := ident.Version
	ident.Version++

	return prev, nil
}
