package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SessionCookieName = "cartSession"

	defaultSessionTTL = 30 * 24 * time.Hour
)

type ctxKey int

const sessionKey ctxKey = iota

type sessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// A SessionResolver binds every cart request to one anonymous session.
//
// The session id travels in a signed cookie. A missing or invalid cookie
// starts a new session.
type SessionResolver struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessionResolver(
	secret string, ttl time.Duration, secure bool,
) SessionResolver {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return SessionResolver{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

func (s SessionResolver) Wrap(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		sid, ok := s.fromCookie(r)
		if !ok {
			var err error
			sid, err = s.start(w)
			if err != nil {
				writeError(w, r, "SessionResolver.Wrap", err)
				return
			}
		}
		ctx := context.WithValue(r.Context(), sessionKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(hf)
}

func (s SessionResolver) WrapFunc(hf http.HandlerFunc) http.Handler {
	return s.Wrap(hf)
}

func (s SessionResolver) fromCookie(r *http.Request) (string, bool) {
	const op = "SessionResolver.fromCookie"

	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}

	var claims sessionClaims
	_, err = jwt.ParseWithClaims(
		c.Value, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		slog.Debug("drop session cookie", "op", op, "err", err)
		return "", false
	}

	if _, err := uuid.Parse(claims.SID); err != nil {
		return "", false
	}
	return claims.SID, true
}

func (s SessionResolver) start(w http.ResponseWriter) (string, error) {
	sid := uuid.NewString()
	now := s.now()
	expires := now.Add(s.ttl)

	token, err := s.issue(sid, now, expires)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid, nil
}

func (s SessionResolver) issue(sid string, now, expires time.Time) (string, error) {
	claims := sessionClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(s.secret)
}

func sessionFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionKey).(string)
	return sid, ok && sid != ""
}
