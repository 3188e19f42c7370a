package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"user-api/internal/domain"
	"user-api/internal/repository/sqlite"
	"user-api/internal/service"
	"user-api/internal/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, jwt bool) *gin.Engine {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userRepo := sqlite.NewUserRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	tokenRepo := sqlite.NewTokenRepository(db)
	require.NoError(t, tokenRepo.Init(ctx))

	store, err := service.NewUserStore(userRepo, bcrypt.MinCost)
	require.NoError(t, err)

	var issuer service.TokenIssuer = token.NewStoredIssuer(tokenRepo)
	if jwt {
		issuer = token.NewJWTIssuer("test-secret", time.Hour)
	}

	router := gin.New()
	NewHandler(service.NewUserService(store), issuer, nil).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createUser(t *testing.T, router http.Handler, email, password, name string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/user/create/", map[string]string{
		"email": email, "password": password, "name": name,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreateUserEndpoint(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/user/create/", map[string]string{
		"email": "test@example.com", "password": "testpass", "name": "Test name",
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "test@example.com", body["email"])
	assert.Equal(t, "Test name", body["name"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, rec.Body.String(), "testpass")
}

func TestCreateUserDuplicate(t *testing.T) {
	router := newTestRouter(t, false)
	createUser(t, router, "dup@example.com", "testpass", "Dup")

	rec := doJSON(t, router, http.MethodPost, "/api/user/create/", map[string]string{
		"email": "dup@example.com", "password": "otherpass", "name": "Dup",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "email")
}

func TestCreateUserPasswordTooShort(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/user/create/", map[string]string{
		"email": "short@example.com", "password": "pw", "name": "Short",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []any{"Ensure this field has at least 5 characters."}, body["password"])

	// the user must not exist afterwards
	rec = doJSON(t, router, http.MethodPost, "/api/user/token/", map[string]string{
		"email": "short@example.com", "password": "pw",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserEmptyBody(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/user/create/", nil, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body, "email")
	assert.Contains(t, body, "password")
	assert.Contains(t, body, "name")
}

func TestCreateUserMalformedJSON(t *testing.T) {
	router := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/user/create/", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "detail")
}

func TestCreateTokenForUser(t *testing.T) {
	router := newTestRouter(t, false)
	createUser(t, router, "tok@example.com", "testpass", "Tok")

	rec := doJSON(t, router, http.MethodPost, "/api/user/token/", map[string]string{
		"email": "tok@example.com", "password": "testpass",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeBody(t, rec)["token"]
	assert.NotEmpty(t, first)

	rec = doJSON(t, router, http.MethodPost, "/api/user/token/", map[string]string{
		"email": "tok@example.com", "password": "testpass",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first, decodeBody(t, rec)["token"])
}

func TestCreateTokenFailuresLookAlike(t *testing.T) {
	router := newTestRouter(t, false)
	createUser(t, router, "known@example.com", "testpass", "Known")

	wrong := doJSON(t, router, http.MethodPost, "/api/user/token/", map[string]string{
		"email": "known@example.com", "password": "wrong",
	}, nil)
	unknown := doJSON(t, router, http.MethodPost, "/api/user/token/", map[string]string{
		"email": "nobody@example.com", "password": "testpass",
	}, nil)

	require.Equal(t, http.StatusBadRequest, wrong.Code)
	require.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, []any{service.MsgUnableToAuthenticate}, decodeBody(t, wrong)["non_field_errors"])
	assert.NotContains(t, decodeBody(t, wrong), "token")
}

func TestCreateTokenMissingField(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/user/token/", map[string]string{
		"email": "one@example.com", "password": "",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body, "password")
	assert.NotContains(t, body, "token")
}

func TestCreateTokenKeepsPasswordWhitespace(t *testing.T) {
	router := newTestRouter(t, false)
	createUser(t, router, "ws@example.com", " padded ", "Ws")

	rec := doJSON(t, router, http.MethodPost, "/api/user/token/", map[string]string{
		"email": "ws@example.com", "password": "padded",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/user/token/", map[string]string{
		"email": "ws@example.com", "password": " padded ",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMeEndpoint(t *testing.T) {
	for _, tc := range []struct {
		name   string
		jwt    bool
		scheme string
	}{
		{name: "stored token", scheme: "Token"},
		{name: "jwt bearer", jwt: true, scheme: "Bearer"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, tc.jwt)
			createUser(t, router, "me@example.com", "testpass", "Me")

			rec := doJSON(t, router, http.MethodPost, "/api/user/token/", map[string]string{
				"email": "me@example.com", "password": "testpass",
			}, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			tok, _ := decodeBody(t, rec)["token"].(string)

			rec = doJSON(t, router, http.MethodGet, "/api/user/me/", nil, http.Header{
				"Authorization": {tc.scheme + " " + tok},
			})
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"email":"me@example.com","name":"Me"}`, rec.Body.String())
		})
	}
}

func TestMeRequiresToken(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodGet, "/api/user/me/", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgNoCredentials, decodeBody(t, rec)["detail"])

	rec = doJSON(t, router, http.MethodGet, "/api/user/me/", nil, http.Header{
		"Authorization": {"Token bogus"},
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgInvalidToken, decodeBody(t, rec)["detail"])
}

type failingUsers struct {
	service.UserService
}

func (failingUsers) Create(context.Context, service.NewUser) (*domain.User, error) {
	return nil, errors.New("database is locked")
}

func TestCreateUserStoreFailure(t *testing.T) {
	router := gin.New()
	NewHandler(failingUsers{}, nil, nil).RegisterRoutes(router)

	rec := doJSON(t, router, http.MethodPost, "/api/user/create/", map[string]string{
		"email": "x@example.com", "password": "testpass", "name": "X",
	}, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database is locked")
}

func TestHealthAndCORS(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = doJSON(t, router, http.MethodOptions, "/api/user/create/", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTokenFromHeader(t *testing.T) {
	tok, ok := tokenFromHeader("token abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = tokenFromHeader("Basic abc")
	assert.False(t, ok)

	_, ok = tokenFromHeader("Token")
	assert.False(t, ok)
}
