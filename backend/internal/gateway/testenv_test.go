package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"coursehub/backend/internal/gateway"
	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store/memstore"
)

const testPassword = "password123"

// TestEnv holds the router and the store behind it
type TestEnv struct {
	Router http.Handler
	DB     *memstore.DB
}

// setupGatewayTestEnv builds the full HTTP stack over an in-memory store
// with one admin and one approved instructor.
func setupGatewayTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	cfg := &shared.ServiceConfig{
		ServiceName: "gateway-test",
		Environment: "development",
		Security: shared.SecurityConfig{
			JWTSecret:          "test-secret",
			JWTIssuer:          "coursehub-test",
			JWTExpirationHours: 1,
			BCryptCost:         bcrypt.MinCost,
		},
		CORS: shared.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		},
		HTTP: shared.HTTPConfig{RequestTimeout: 5 * time.Second},
	}

	db := memstore.New()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, db.Users().Create(ctx, &shared.User{
		ID: "admin1", FirstName: "Ada", LastName: "Admin", Email: "admin@coursehub.io",
		PasswordHash: string(hash), Role: shared.RoleAdmin, IsActive: true, IsApproved: true,
	}))
	require.NoError(t, db.Users().Create(ctx, &shared.User{
		ID: "inst1", FirstName: "Ian", LastName: "Instructor", Email: "instructor@coursehub.io",
		PasswordHash: string(hash), Role: shared.RoleInstructor, IsActive: true, IsApproved: true,
		InstructorProfile: &shared.InstructorProfile{VerificationStatus: shared.VerificationApproved},
	}))

	log := logger.Nop()
	svcs := gateway.NewServices(db, log, cfg.Security, nil)
	return &TestEnv{Router: gateway.SetupRoutes(svcs, cfg, log), DB: db}
}

// do sends a JSON request and decodes the JSON response
func (env *TestEnv) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)

	var resp map[string]interface{}
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	}
	return rr.Code, resp
}

func (env *TestEnv) login(t *testing.T, email string) string {
	t.Helper()
	code, resp := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": testPassword,
	})
	require.Equal(t, http.StatusOK, code, resp)
	return resp["token"].(string)
}

func (env *TestEnv) registerStudent(t *testing.T, email string) (token, id string) {
	t.Helper()
	code, resp := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName": "Sam", "lastName": "Student", "email": email, "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, code, resp)
	return resp["token"].(string), object(t, resp, "user")["id"].(string)
}

func object(t *testing.T, resp map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	obj, ok := resp[key].(map[string]interface{})
	require.True(t, ok, "missing %q in %v", key, resp)
	return obj
}
