// Package identity verifies bearer tokens issued by the external identity provider
package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/englishassessment/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	// DefaultMetadataClaim is the namespaced claim carrying the user's app metadata
	DefaultMetadataClaim = "https://yourapp.com/app_metadata"
	verticalKey          = "vertical_id"
	keyRefreshInterval   = time.Minute
	defaultHTTPTimeout   = 10 * time.Second
)

// Identity is the verified caller
type Identity struct {
	Subject  string
	Email    string
	Vertical *models.Vertical
}

// Config holds identity provider settings.
// Issuer, JWKSURL and UserinfoURL are derived from Domain when empty.
type Config struct {
	Domain        string
	Audience      string
	MetadataClaim string
	Issuer        string
	JWKSURL       string
	UserinfoURL   string
}

// Verifier validates RS256 tokens against the provider's JWKS
type Verifier struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewVerifier creates a new token verifier
func NewVerifier(cfg Config, httpClient *http.Client, logger *zap.Logger) *Verifier {
	domain := strings.TrimSuffix(strings.TrimPrefix(cfg.Domain, "https://"), "/")
	if cfg.Issuer == "" {
		cfg.Issuer = "https://" + domain + "/"
	}
	base := strings.TrimSuffix(cfg.Issuer, "/")
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = base + "/.well-known/jwks.json"
	}
	if cfg.UserinfoURL == "" {
		cfg.UserinfoURL = base + "/userinfo"
	}
	if cfg.MetadataClaim == "" {
		cfg.MetadataClaim = DefaultMetadataClaim
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Verifier{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>" header value
func ExtractBearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: authorization header missing", models.ErrUnauthenticated)
	}
	if !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("%w: authorization header must start with Bearer", models.ErrUnauthenticated)
	}
	if len(parts) == 1 {
		return "", fmt.Errorf("%w: token not found", models.ErrUnauthenticated)
	}
	if len(parts) > 2 {
		return "", fmt.Errorf("%w: authorization header must be a Bearer token", models.ErrUnauthenticated)
	}
	return parts[1], nil
}

// Verify validates the token signature, issuer, audience and expiry and returns the caller.
//
// When the token carries no email the provider's userinfo endpoint is asked for it. The
// returned Email may still be empty if that lookup fails.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		return v.key(ctx, kid)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", models.ErrUnauthenticated)
	}

	id := &Identity{}
	id.Subject, _ = claims["sub"].(string)
	id.Email, _ = claims["email"].(string)
	id.Vertical = v.verticalFrom(claims)

	if id.Email == "" && id.Subject != "" {
		email, err := v.userinfoEmail(ctx, tokenString)
		if err != nil {
			v.logger.Warn("failed to resolve email from userinfo", zap.String("sub", id.Subject), zap.Error(err))
		}
		id.Email = email
	}
	return id, nil
}

func (v *Verifier) verticalFrom(claims jwt.MapClaims) *models.Vertical {
	metadata, ok := claims[v.cfg.MetadataClaim].(map[string]any)
	if !ok {
		return nil
	}
	var id int
	switch raw := metadata[verticalKey].(type) {
	case float64:
		id = int(raw)
	case string:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil
		}
		id = n
	default:
		return nil
	}
	vertical := models.Vertical(id)
	if !vertical.Valid() {
		return nil
	}
	return &vertical
}

// key returns the signing key for kid, refreshing the JWKS when kid is unknown
func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	stale := time.Since(v.fetchedAt) > keyRefreshInterval
	v.mu.RUnlock()
	if ok {
		return key, nil
	}
	if !stale {
		return nil, fmt.Errorf("signing key %q not found", kid)
	}

	keys, err := v.fetchKeys(ctx)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()

	key, ok = keys[kid]
	if !ok {
		return nil, fmt.Errorf("signing key %q not found", kid)
	}
	return key, nil
}

type jsonWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (v *Verifier) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create jwks request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch jwks: status %d", resp.StatusCode)
	}

	var set struct {
		Keys []jsonWebKey `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.Kty != "RSA" {
			continue
		}
		key, err := parseRSAKey(jwk)
		if err != nil {
			v.logger.Warn("skipping invalid jwks key", zap.String("kid", jwk.Kid), zap.Error(err))
			continue
		}
		keys[jwk.Kid] = key
	}
	return keys, nil
}

func parseRSAKey(jwk jsonWebKey) (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}
	exponent := new(big.Int).SetBytes(e)
	if !exponent.IsInt64() || exponent.Int64() < 2 || exponent.Int64() > 1<<31-1 {
		return nil, errors.New("exponent out of range")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exponent.Int64())}, nil
}

func (v *Verifier) userinfoEmail(ctx context.Context, tokenString string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.UserinfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenString)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, body)
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return info.Email, nil
}
