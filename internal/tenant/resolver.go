package tenant

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultHeader is the trust-boundary header carrying the tenant identifier.
const DefaultHeader = "X-Tenant-Id"

type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenantId,omitempty"`
}

// Resolver derives a tenant Context from inbound request attributes.
// A signed bearer token takes precedence over the plain header; the header
// remains the MVP path for callers without a token.
type Resolver struct {
	header    string
	secret    []byte
	jwtParser *jwt.Parser
}

func NewResolver(header string, secret string) *Resolver {
	if header == "" {
		header = DefaultHeader
	}

	jwtParser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	return &Resolver{
		header:    header,
		secret:    []byte(secret),
		jwtParser: jwtParser,
	}
}

// Resolve produces the tenant Context for a request. It never fails: requests
// without any tenant assertion resolve to an unasserted Context, and the
// RequireTenant gate decides whether that is acceptable per route.
func (r *Resolver) Resolve(req *http.Request) Context {
	if tc, ok := r.resolveBearer(req); ok {
		return tc
	}

	value := req.Header.Get(r.header)
	if value == "" {
		return Context{}
	}

	return Context{
		TenantID: value,
		Asserted: true,
	}
}

func (r *Resolver) resolveBearer(req *http.Request) (Context, bool) {
	if len(r.secret) == 0 {
		return Context{}, false
	}

	authorization := req.Header.Get("Authorization")
	tokenString, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || tokenString == "" {
		return Context{}, false
	}

	claims := Claims{}

	_, err := r.jwtParser.ParseWithClaims(tokenString, &claims, r.keyFunc)
	if err != nil || claims.TenantID == "" {
		return Context{}, false
	}

	return Context{
		TenantID: claims.TenantID,
		Asserted: true,
	}, true
}

func (r *Resolver) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}

	return r.secret, nil
}
