package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/did"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

const (
	minSecretLen = 32
	clockLeeway  = time.Minute
)

var (
	ErrUnauthenticated = errors.New("missing or invalid bearer token")
)

type principalCtxKey struct{}

// PrincipalFrom returns the authenticated caller of a request
func PrincipalFrom(ctx context.Context) did.Principal {
	p, _ := ctx.Value(principalCtxKey{}).(did.Principal)
	return p
}

type authenticator struct {
	secret []byte
	now    func() time.Time
}

func newAuthenticator(secret []byte) (*authenticator, error) {
	if len(secret) < minSecretLen {
		return nil, errors.Errorf("token secret must be at least %d bytes", minSecretLen)
	}

	return &authenticator{secret: secret, now: time.Now}, nil
}

// IssueToken mints an HS256 bearer token for subject
func IssueToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	if len(secret) < minSecretLen {
		return "", errors.Errorf("token secret must be at least %d bytes", minSecretLen)
	}

	options := &jose.SignerOptions{}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: secret}, options.WithType("JWT"))
	if err != nil {
		return "", errors.Wrap(err, "creating token signer")
	}

	now := time.Now()
	claims := jwt.Claims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-clockLeeway)),
		Expiry:    jwt.NewNumericDate(now.Add(ttl)),
	}

	raw, err := jwt.Signed(signer).Claims(claims).CompactSerialize()
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}

	return raw, nil
}

func (au *authenticator) principal(header string) (did.Principal, error) {
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == "" || raw == header {
		return "", ErrUnauthenticated
	}

	tok, err := jwt.ParseSigned(raw)
	if err != nil {
		return "", errors.Wrap(ErrUnauthenticated, err.Error())
	}

	for _, h := range tok.Headers {
		if h.Algorithm != string(jose.HS256) {
			return "", errors.Wrapf(ErrUnauthenticated, "unexpected algorithm %s", h.Algorithm)
		}
	}

	claims := jwt.Claims{}
	if err := tok.Claims(au.secret, &claims); err != nil {
		return "", errors.Wrap(ErrUnauthenticated, err.Error())
	}

	if err := claims.ValidateWithLeeway(jwt.Expected{Time: au.now()}, clockLeeway); err != nil {
		return "", errors.Wrap(ErrUnauthenticated, err.Error())
	}

	if claims.Expiry == nil || claims.Subject == "" {
		return "", errors.Wrap(ErrUnauthenticated, "token must carry a subject and expiry")
	}

	return did.Principal(claims.Subject), nil
}

func (a *Api) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.auth.principal(r.Header.Get("Authorization"))
		if err != nil {
			a.log.WithError(err).Debug("rejected request")
			w.Header().Set("WWW-Authenticate", `Bearer realm="didkms"`)
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{
				Code:    "Unauthenticated",
				Message: ErrUnauthenticated.Error(),
			}})
			return
		}

		ctx := context.WithValue(r.Context(), principalCtxKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
