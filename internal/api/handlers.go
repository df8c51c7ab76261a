package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/keys"
	"github.com/tcfw/didkms/pkg/rotation"
)

// KeyView is the public description of a key. It never carries private
// material.
type KeyView struct {
	ID                 string     `json:"id"`
	VerificationMethod string     `json:"verificationMethod"`
	Algorithm          string     `json:"algorithm"`
	Curve              string     `json:"curve,omitempty"`
	Size               int        `json:"size,omitempty"`
	Use                string     `json:"use"`
	State              string     `json:"state"`
	CreatedAt          time.Time  `json:"createdAt"`
	RetiredAt          *time.Time `json:"retiredAt,omitempty"`
}

// parseRotateRequest reads the rotation parameters of a request. A missing
// use means Signing.
func parseRotateRequest(id string, q url.Values) (rotation.Request, error) {
	req := rotation.Request{Identifier: id, Use: keys.Signing}

	if id == "" {
		return req, &rotation.Error{Kind: rotation.IdentifierNotProvided}
	}

	if v := q.Get("use"); v != "" {
		use, err := keys.ParseUse(v)
		if err != nil {
			return req, &rotation.Error{Kind: rotation.UnsupportedKeyUse, Identifier: id, Err: err}
		}
		req.Use = use
	}

	invalid := func(err error) error {
		return &rotation.Error{Kind: rotation.InvalidKeyParameters, Identifier: id, Use: req.Use, Err: err}
	}

	if v := q.Get("alg"); v != "" {
		alg, err := keys.ParseAlgorithm(v)
		if err != nil {
			return req, invalid(err)
		}
		req.Algorithm = alg
	}

	if v := q.Get("curve"); v != "" {
		c, err := keys.ParseCurve(v)
		if err != nil {
			return req, invalid(err)
		}
		req.Curve = c
	}

	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return req, invalid(errors.Wrapf(keys.ErrInvalidKeyParameters, "size %q", v))
		}
		req.Size = n
	}

	return req, nil
}

func (a *Api) rotate(w http.ResponseWriter, r *http.Request) {
	req, err := parseRotateRequest(chi.URLParam(r, "id"), r.URL.Query())
	if err != nil {
		a.metrics.observeRotation(req.Use, err)
		a.writeError(w, r, err)
		return
	}
	req.Caller = PrincipalFrom(r.Context())

	doc, err := a.rotator.Rotate(r.Context(), req)
	a.metrics.observeRotation(req.Use, err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (a *Api) resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := a.resolver.Resolve(r.Context(), w3cdid.NewURL(a.method, id))
	if err != nil {
		a.writeError(w, r, lookupError(err, id))
		return
	}

	writeJSONAs(w, http.StatusOK, "application/did+json", doc)
}

func (a *Api) listKeys(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ident, err := a.store.Read(r.Context(), id, PrincipalFrom(r.Context()))
	if err != nil {
		a.writeError(w, r, lookupError(err, id))
		return
	}
	defer ident.Wipe()

	views := make([]KeyView, 0, len(ident.Keys))
	for _, k := range ident.Keys {
		views = append(views, KeyView{
			ID:                 k.ID,
			VerificationMethod: string(w3cdid.URL(ident.DocumentID()).WithFragment(k.ID)),
			Algorithm:          string(k.Algorithm),
			Curve:              string(k.Curve),
			Size:               k.Size,
			Use:                string(k.Use),
			State:              string(k.State),
			CreatedAt:          k.CreatedAt,
			RetiredAt:          k.RetiredAt,
		})
	}

	writeJSON(w, http.StatusOK, views)
}

func (a *Api) history(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snaps, err := a.store.History(r.Context(), id, PrincipalFrom(r.Context()))
	if err != nil {
		a.writeError(w, r, lookupError(err, id))
		return
	}

	writeJSON(w, http.StatusOK, snaps)
}
