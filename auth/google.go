package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	GoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

	defaultKeysLifetime = time.Hour

	// unknown key IDs trigger at most one key set fetch per interval
	minRefetchInterval = time.Minute
)

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

var ErrMissingClientID = errors.New("google client id is required")

var (
	errUnknownKey       = errors.New("unknown signing key")
	errInvalidIssuer    = errors.New("invalid issuer")
	errUnverifiedEmail  = errors.New("email not verified")
	errMissingEmail     = errors.New("token has no email claim")
	errUnsupportedKey   = errors.New("unsupported key type")
	errCertsUnavailable = errors.New("google certs unavailable")
)

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

type jsonWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// GoogleVerifier verifies Google-issued ID tokens against Google's published signing keys.
type GoogleVerifier struct {
	clientID string
	certsURL string
	client   *http.Client
	now      func() time.Time

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	expires   time.Time
	lastFetch time.Time
}

// NewGoogleVerifier accepts only tokens issued for clientID, which must be set.
func NewGoogleVerifier(clientID, certsURL string, client *http.Client) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, ErrMissingClientID
	}
	if certsURL == "" {
		certsURL = GoogleCertsURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleVerifier{clientID: clientID, certsURL: certsURL, client: client, now: time.Now}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (string, error) {
	// jwt skips the audience check for an empty expected audience
	if v.clientID == "" {
		return "", ErrMissingClientID
	}

	claims := &googleClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", err
	}

	if !googleIssuers[claims.Issuer] {
		return "", errInvalidIssuer
	}
	if claims.Email == "" {
		return "", errMissingEmail
	}
	if !claims.EmailVerified {
		return "", errUnverifiedEmail
	}

	return claims.Email, nil
}

func (v *GoogleVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	refreshed := false
	if v.keys == nil || !v.now().Before(v.expires) {
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
		refreshed = true
	}

	if k, ok := v.keys[kid]; ok {
		return k, nil
	}

	// keys rotate; one refetch before giving up, rate limited against bogus key IDs
	if !refreshed && v.now().Sub(v.lastFetch) >= minRefetchInterval {
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
		if k, ok := v.keys[kid]; ok {
			return k, nil
		}
	}
	return nil, errUnknownKey
}

func (v *GoogleVerifier) refresh(ctx context.Context) error {
	v.lastFetch = v.now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return err
	}

	res, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errCertsUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", errCertsUnavailable, res.StatusCode)
	}

	var set struct {
		Keys []jsonWebKey `json:"keys"`
	}
	if err := json.NewDecoder(res.Body).Decode(&set); err != nil {
		return fmt.Errorf("%w: %w", errCertsUnavailable, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		pub, err := k.rsaPublicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	v.keys = keys
	v.expires = v.now().Add(maxAge(res.Header.Get("Cache-Control")))
	return nil
}

func (k jsonWebKey) rsaPublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, errUnsupportedKey
	}

	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}

func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, "max-age=") {
			continue
		}
		if secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age=")); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultKeysLifetime
}
