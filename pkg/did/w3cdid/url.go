package w3cdid

import (
	"net/url"
	"strings"
)

type URL string

// NewURL builds the canonical DID for a method specific id
func NewURL(method, id string) URL {
	return URL("did:" + method + ":" + id)
}

func (u URL) Scheme() string {
	return "did"
}

func (u URL) Method() string {
	uri, err := url.Parse(string(u))
	if err != nil {
		return ""
	}
	p := strings.SplitN(uri.Opaque, ":", 2)
	return p[0]
}

func (u URL) Id() string {
	uri, err := url.Parse(string(u))
	if err != nil {
		return ""
	}
	p := strings.SplitN(uri.Opaque, ":", 2)
	if len(p) < 2 {
		return ""
	}

	return p[1]
}

func (u URL) Query() string {
	uri, err := url.Parse(string(u))
	if err != nil {
		return ""
	}
	return uri.RawQuery
}

func (u URL) Fragment() string {
	uri, err := url.Parse(string(u))
	if err != nil {
		return ""
	}
	return uri.Fragment
}

// WithFragment returns the DID URL addressing a resource in the document
func (u URL) WithFragment(f string) URL {
	base := string(u)
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	return URL(base + "#" + f)
}

// Valid reports whether u is a did: URL with both a method and an id
func (u URL) Valid() bool {
	if !strings.HasPrefix(string(u), "did:") {
		return false
	}
	return u.Method() != "" && u.Id() != ""
}
