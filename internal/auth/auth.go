// Package auth resolves caller identity from inbound requests and gates
// organizer-restricted operations.
//
// Identity arrives in one of two shapes: a JSON claims blob injected by an
// API gateway into a trusted header, or a bearer JWT the service verifies
// itself. Both carry a "sub" subject id and a "cognito:groups" membership
// claim whose encoding varies by gateway version (see ParseGroups).
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shivanand-hulikatti/events-manager/internal/model"
)

// ErrUnauthenticated is returned when no principal could be resolved where
// one is required.
var ErrUnauthenticated = errors.New("authentication required")

// ErrForbidden is returned when the principal lacks the organizer role.
var ErrForbidden = errors.New("user is not an organizer")

const (
	subjectClaim = "sub"
	groupsClaim  = "cognito:groups"
)

// Resolver extracts principals from requests and applies role checks.
type Resolver struct {
	mode           string
	secret         []byte
	claimsHeader   string
	organizerGroup string
}

// NewResolver constructs a Resolver. mode is "jwt" or "mock"; secret is the
// HS256 key used in jwt mode; claimsHeader names the trusted gateway header
// checked before falling back to bearer-token verification.
func NewResolver(mode, secret, claimsHeader, organizerGroup string) *Resolver {
	return &Resolver{
		mode:           mode,
		secret:         []byte(secret),
		claimsHeader:   claimsHeader,
		organizerGroup: organizerGroup,
	}
}

// ResolvePrincipal extracts the caller identity from the request, or nil
// when none is present. It never fails hard: a malformed token or claims
// blob resolves to no principal.
func (a *Resolver) ResolvePrincipal(r *http.Request) *model.Principal {
	if a.mode == "mock" {
		// Local-testing shortcut: a fixed organizer identity.
		return &model.Principal{
			ID:     "test-organizer-001",
			Groups: []string{a.organizerGroup, "Attendees"},
		}
	}
	if p := a.principalFromClaimsHeader(r); p != nil {
		return p
	}
	return a.principalFromBearerToken(r)
}

// principalFromClaimsHeader reads the gateway-injected claims blob, a JSON
// object of authorizer claims.
func (a *Resolver) principalFromClaimsHeader(r *http.Request) *model.Principal {
	raw := r.Header.Get(a.claimsHeader)
	if raw == "" {
		return nil
	}
	var claims map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		return nil
	}
	var sub string
	if err := json.Unmarshal(claims[subjectClaim], &sub); err != nil || sub == "" {
		return nil
	}
	return &model.Principal{ID: sub, Groups: groupsFromRaw(claims[groupsClaim])}
}

// principalFromBearerToken verifies an HS256 bearer JWT.
func (a *Resolver) principalFromBearerToken(r *http.Request) *model.Principal {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil
	}
	sub, _ := claims[subjectClaim].(string)
	if sub == "" {
		return nil
	}
	return &model.Principal{ID: sub, Groups: groupsFromClaim(claims[groupsClaim])}
}

// RequireAuthenticated fails with ErrUnauthenticated when no principal
// resolved.
func (a *Resolver) RequireAuthenticated(p *model.Principal) (model.Principal, error) {
	if p == nil {
		return model.Principal{}, ErrUnauthenticated
	}
	return *p, nil
}

// RequireOrganizer fails with ErrUnauthenticated when no principal resolved
// and ErrForbidden when the principal is not in the configured organizer
// group.
func (a *Resolver) RequireOrganizer(p *model.Principal) (model.Principal, error) {
	principal, err := a.RequireAuthenticated(p)
	if err != nil {
		return model.Principal{}, err
	}
	if !principal.HasGroup(a.organizerGroup) {
		return model.Principal{}, ErrForbidden
	}
	return principal, nil
}

// groupsFromRaw normalizes a raw JSON groups claim: a JSON string is fed
// through ParseGroups, a JSON array is taken as-is.
func groupsFromRaw(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseGroups(s)
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return normalizeGroups(arr)
	}
	return []string{}
}

// groupsFromClaim normalizes a decoded JWT groups claim, which may be a
// JSON array or a string in any of the ParseGroups encodings.
func groupsFromClaim(v any) []string {
	switch groups := v.(type) {
	case nil:
		return []string{}
	case string:
		return ParseGroups(groups)
	case []any:
		names := make([]string, 0, len(groups))
		for _, g := range groups {
			if s, ok := g.(string); ok {
				names = append(names, s)
			}
		}
		return normalizeGroups(names)
	}
	return []string{}
}

// ParseGroups normalizes a group-membership string into a set of trimmed
// group names. Gateways emit this claim in several encodings, tried in
// order:
//
//  1. empty string            -> no groups
//  2. JSON array              -> `["Organizers","Admins"]`
//  3. bracketed, unquoted     -> `[Organizers, Admins]`
//  4. comma-separated         -> `Organizers,Admins`
//
// Unparseable input yields the empty set rather than an error, so a garbled
// claim can never grant access.
func ParseGroups(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		var arr []string
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return normalizeGroups(arr)
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
		return normalizeGroups(strings.Split(inner, ","))
	}
	return normalizeGroups(strings.Split(raw, ","))
}

// normalizeGroups trims entries, drops empties, and deduplicates while
// keeping first-seen order.
func normalizeGroups(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, g := range in {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

type contextKey struct{}

// PrincipalFromContext returns the principal stored by the middleware.
func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(model.Principal)
	return p, ok
}

// WithPrincipal returns a context carrying the given principal.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// OrganizerOnly is chi middleware guarding organizer-restricted routes. It
// resolves the caller, enforces the organizer role, and stores the principal
// in the request context for the handler.
func (a *Resolver) OrganizerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.RequireOrganizer(a.ResolvePrincipal(r))
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, ErrForbidden) {
				status = http.StatusForbidden
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}
