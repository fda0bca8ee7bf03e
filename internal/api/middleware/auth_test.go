package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/rbac"
)

// testKeyID — идентификатор ключа для тестов.
const testKeyID = "test-key-mcb"

const testIssuer = "https://keycloak.test/realms/corebank"

// testGroups — маппинг групп для тестов.
var testGroups = rbac.GroupMapping{
	AdminGroups:   []string{"mc-admins"},
	CheckerGroups: []string{"mc-checkers"},
	MakerGroups:   []string{"mc-makers"},
}

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	nB64 := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	eB64 := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())

	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   nB64,
				"e":   eB64,
			},
		},
	}

	data, _ := json.Marshal(jwks)
	return data
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestJWTAuth создаёт JWTAuth с JWKS из одного тестового ключа.
func newTestJWTAuth(t *testing.T, key *rsa.PrivateKey) *JWTAuth {
	t.Helper()
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}
	return NewJWTAuthWithKeyfunc(kf, testIssuer, testGroups, testLogger())
}

// tokenOptions — параметры тестового JWT.
type tokenOptions struct {
	sub      string
	username string
	roles    []string
	groups   []string
	issuer   string
	expired  bool
}

// generateToken генерирует подписанный JWT пользователя.
func generateToken(t *testing.T, key *rsa.PrivateKey, opts tokenOptions) string {
	t.Helper()

	exp := time.Now().Add(time.Hour)
	if opts.expired {
		exp = time.Now().Add(-time.Hour)
	}
	issuer := opts.issuer
	if issuer == "" {
		issuer = testIssuer
	}

	claims := jwt.MapClaims{
		"preferred_username": opts.username,
		"email":              opts.username + "@bank.test",
		"iss":                issuer,
		"exp":                jwt.NewNumericDate(exp),
		"nbf":                jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		"iat":                jwt.NewNumericDate(time.Now()),
	}
	if opts.sub != "" {
		claims["sub"] = opts.sub
	}
	if len(opts.roles) > 0 {
		claims["realm_access"] = map[string]any{"roles": opts.roles}
	}
	if len(opts.groups) > 0 {
		claims["groups"] = opts.groups
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return tokenStr
}

// serveWithToken прогоняет запрос через middleware и возвращает claims из контекста.
func serveWithToken(t *testing.T, auth *JWTAuth, header string) (*httptest.ResponseRecorder, *AuthClaims) {
	t.Helper()
	var got *AuthClaims
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/maker-checker/inbox", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, got
}

// --- Тесты JWT Middleware ---

func TestJWTAuth_ValidToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tokenStr := generateToken(t, key, tokenOptions{
		sub: "user-123", username: "checker1", groups: []string{"mc-checkers"},
	})
	rec, claims := serveWithToken(t, auth, "Bearer "+tokenStr)

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d, тело: %s", rec.Code, rec.Body.String())
	}
	if claims == nil {
		t.Fatal("claims не найдены в контексте")
	}
	if claims.Subject != "user-123" {
		t.Errorf("ожидался sub=user-123, получен %s", claims.Subject)
	}
	if claims.PreferredUsername != "checker1" {
		t.Errorf("ожидался username=checker1, получен %s", claims.PreferredUsername)
	}
	if claims.Email != "checker1@bank.test" {
		t.Errorf("email = %s", claims.Email)
	}
	if claims.Role != rbac.RoleChecker {
		t.Errorf("ожидалась роль checker, получена %q", claims.Role)
	}
}

func TestJWTAuth_RoleResolution(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tests := []struct {
		name   string
		roles  []string
		groups []string
		want   string
	}{
		{"группа мейкеров", nil, []string{"mc-makers"}, rbac.RoleMaker},
		{"старшая из нескольких групп", nil, []string{"mc-makers", "mc-admins"}, rbac.RoleAdmin},
		{"роль из realm_access", []string{"offline_access", "checker"}, nil, rbac.RoleChecker},
		{"группа важнее realm_access", []string{"admin"}, []string{"mc-makers"}, rbac.RoleMaker},
		{"нет ни группы, ни роли", []string{"offline_access"}, []string{"other"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenStr := generateToken(t, key, tokenOptions{
				sub: "u-1", username: "u", roles: tt.roles, groups: tt.groups,
			})
			rec, claims := serveWithToken(t, auth, "Bearer "+tokenStr)
			if rec.Code != http.StatusOK {
				t.Fatalf("статус = %d", rec.Code)
			}
			if claims.Role != tt.want {
				t.Errorf("роль = %q, ожидалась %q", claims.Role, tt.want)
			}
		})
	}
}

func TestJWTAuth_Rejected(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tests := []struct {
		name   string
		header string
	}{
		{"нет заголовка", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"без префикса Bearer", "token123"},
		{"пустой Bearer", "Bearer "},
		{"мусор вместо токена", "Bearer not.a.jwt"},
		{"просроченный", "Bearer " + generateToken(t, key, tokenOptions{sub: "u", username: "u", expired: true})},
		{"чужой issuer", "Bearer " + generateToken(t, key, tokenOptions{sub: "u", username: "u", issuer: "https://evil.test"})},
		{"чужой ключ", "Bearer " + generateToken(t, otherKey, tokenOptions{sub: "u", username: "u"})},
		{"без sub", "Bearer " + generateToken(t, key, tokenOptions{username: "u"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, claims := serveWithToken(t, auth, tt.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("ожидался статус 401, получен %d", rec.Code)
			}
			if claims != nil {
				t.Error("handler не должен быть вызван")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		claims *AuthClaims
		roles  []string
		want   int
	}{
		{"нет claims", nil, []string{rbac.RoleAdmin}, http.StatusUnauthorized},
		{"admin на admin-маршруте", &AuthClaims{Role: rbac.RoleAdmin}, []string{rbac.RoleAdmin}, http.StatusOK},
		{"checker на admin-маршруте", &AuthClaims{Role: rbac.RoleChecker}, []string{rbac.RoleAdmin}, http.StatusForbidden},
		{"checker среди разрешённых", &AuthClaims{Role: rbac.RoleChecker}, []string{rbac.RoleChecker, rbac.RoleAdmin}, http.StatusOK},
		{"без роли", &AuthClaims{}, []string{rbac.RoleMaker}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.roles...)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPut, "/api/v1/maker-checker/global", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("статус = %d, ожидался %d", rec.Code, tt.want)
			}
		})
	}
}

func TestUsernameFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := UsernameFromContext(req.Context()); got != "" {
		t.Errorf("без claims: %q", got)
	}
	ctx := WithClaims(req.Context(), &AuthClaims{PreferredUsername: "alice"})
	if got := UsernameFromContext(ctx); got != "alice" {
		t.Errorf("username = %q", got)
	}
}

func TestJWKSReadinessChecker(t *testing.T) {
	key := generateTestKey(t)
	jwks := buildJWKSetJSON(&key.PublicKey, testKeyID)

	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"ключи есть", http.StatusOK, string(jwks), "ok"},
		{"пустой набор", http.StatusOK, `{"keys":[]}`, "degraded"},
		{"невалидный JSON", http.StatusOK, `{`, "degraded"},
		{"ошибка IdP", http.StatusInternalServerError, ``, "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			checker, err := NewJWKSReadinessChecker(srv.URL, "", time.Second)
			if err != nil {
				t.Fatal(err)
			}
			status, msg := checker.CheckReady()
			if status != tt.want {
				t.Errorf("статус = %s (%s), ожидался %s", status, msg, tt.want)
			}
		})
	}
}

func TestJWKSReadinessChecker_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	checker, err := NewJWKSReadinessChecker(url, "", 200*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if status, _ := checker.CheckReady(); status != "fail" {
		t.Errorf("статус = %s, ожидался fail", status)
	}
}

func TestNewJWKSReadinessChecker_MissingCA(t *testing.T) {
	if _, err := NewJWKSReadinessChecker("https://idp.test/certs", "/nonexistent/ca.pem", time.Second); err == nil {
		t.Error("ожидалась ошибка чтения CA")
	}
}
