package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"

	"surveyline/internal/engine"
	"surveyline/internal/engine/auth"
	"surveyline/internal/logger"
	"surveyline/internal/question"
)

const defaultTokenTTL = 12 * time.Hour

type AuthConfig struct {
	JWTSecret string
	// DevLogin exposes POST /auth/dev/login, which mints tokens without
	// credentials.
	DevLogin bool
	// AllowOwnerHeader trusts X-Owner-Id when no credentials are sent.
	AllowOwnerHeader bool
	DefaultPlan      question.Plan
	TokenTTL         time.Duration
	Log              *logger.Logger
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Plan string `json:"plan,omitempty"`
	Role string `json:"role,omitempty"`
}

func (c AuthConfig) defaultPlan() question.Plan {
	if c.DefaultPlan == "" {
		return question.PlanFree
	}
	return c.DefaultPlan
}

func authenticateJWT(token string, secret string) (auth.Principal, error) {
	if strings.TrimSpace(secret) == "" {
		return auth.Principal{}, errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwtClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return auth.Principal{}, err
	}
	if !parsed.Valid {
		return auth.Principal{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return auth.Principal{}, errors.New("subject claim required")
	}
	return auth.Principal{
		OwnerID: claims.Subject,
		Plan:    question.ParsePlan(claims.Plan),
		Role:    claims.Role,
		Source:  "jwt",
	}, nil
}

// signDevToken mints an HS256 token for local testing.
func signDevToken(secret, ownerID string, plan question.Plan, role string, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("jwt secret not configured")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "surveyline-dev",
		},
		Plan: string(plan),
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func authenticateAPIKey(ctx context.Context, e engine.Engine, key string, plan question.Plan) (auth.Principal, error) {
	if strings.TrimSpace(key) == "" {
		return auth.Principal{}, errors.New("api key required")
	}
	apiKey, err := e.AuthenticateAPIKey(ctx, key)
	if err != nil {
		return auth.Principal{}, err
	}
	return auth.Principal{
		OwnerID: apiKey.OwnerID,
		Plan:    plan,
		Source:  "api_key",
	}, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// publicPaths need no credentials.
func publicPaths(basePath string) []string {
	return []string{
		path.Join(basePath, "health"),
		path.Join(basePath, "openapi.json"),
		path.Join(basePath, "auth/dev/login"),
	}
}

func newAuthMiddleware(basePath string, cfg AuthConfig, e engine.Engine) func(http.Handler) http.Handler {
	public := map[string]bool{}
	for _, p := range publicPaths(basePath) {
		public[p] = true
	}
	log := logger.OrNop(cfg.Log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if basePath != "" && !strings.HasPrefix(req.URL.Path, basePath) {
				next.ServeHTTP(w, req)
				return
			}
			if public[req.URL.Path] {
				next.ServeHTTP(w, req)
				return
			}

			authz := strings.TrimSpace(req.Header.Get("Authorization"))
			apiKeyHeader := strings.TrimSpace(req.Header.Get("X-Api-Key"))
			ownerHeader := strings.TrimSpace(req.Header.Get("X-Owner-Id"))

			if authz != "" {
				token, ok := bearerToken(authz)
				if !ok {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				p, err := authenticateJWT(token, cfg.JWTSecret)
				if err != nil {
					log.Debug("jwt rejected", "error", err)
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				next.ServeHTTP(w, req.WithContext(auth.WithPrincipal(req.Context(), p)))
				return
			}

			if apiKeyHeader != "" {
				p, err := authenticateAPIKey(req.Context(), e, apiKeyHeader, cfg.defaultPlan())
				if err != nil {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				next.ServeHTTP(w, req.WithContext(auth.WithPrincipal(req.Context(), p)))
				return
			}

			if ownerHeader != "" && cfg.AllowOwnerHeader {
				log.Warn("using unauthenticated X-Owner-Id header", "owner_id", ownerHeader)
				p := auth.Principal{
					OwnerID: ownerHeader,
					Plan:    cfg.defaultPlan(),
					Source:  "owner_header",
				}
				if plan := strings.TrimSpace(req.Header.Get("X-Plan")); plan != "" {
					p.Plan = question.ParsePlan(plan)
				}
				next.ServeHTTP(w, req.WithContext(auth.WithPrincipal(req.Context(), p)))
				return
			}

			respondStatusError(w, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil))
		})
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}
