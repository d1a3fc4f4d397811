package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/config"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const adminOnlyBody = `{"status":false,"message":"Unauthorized. Admin access only."}`

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.AutoMigrate(db))

	log, _ := logtest.NewNullLogger()
	engine, err := NewRouter(Dependencies{
		Config: &config.Config{
			JWTSecret:   "router-test-secret",
			JWTTTLHours: 1,
		},
		DB:           db,
		Log:          log,
		SessionStore: cookie.NewStore([]byte("router-test-session")),
		Registry:     prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	return &testServer{t: t, engine: engine, db: db}
}

func (s *testServer) do(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		require.NoError(s.t, json.NewEncoder(&body).Encode(payload))
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) signupAndLogin(name, email string) (dto.UserDTO, string) {
	w := s.do(http.MethodPost, "/api/auth/signup", "", map[string]interface{}{
		"name":     name,
		"email":    email,
		"password": "supersecret",
		"is_admin": true,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	return s.login(email, "supersecret")
}

func (s *testServer) login(email, password string) (dto.UserDTO, string) {
	w := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var response dto.LoginResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &response))
	return response.User, response.Token
}

func TestSignupCannotGrantAdmin(t *testing.T) {
	srv := newTestServer(t)

	user, _ := srv.signupAndLogin("Alice", "alice@example.com")
	assert.False(t, user.IsAdmin)

	var stored models.User
	require.NoError(t, srv.db.First(&stored, user.ID).Error)
	assert.False(t, stored.IsAdmin)
}

func TestAdminGate(t *testing.T) {
	srv := newTestServer(t)

	_, userToken := srv.signupAndLogin("Alice", "alice@example.com")

	w := srv.do(http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, adminOnlyBody, w.Body.String())

	w = srv.do(http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, adminOnlyBody, w.Body.String())

	hash, err := bcrypt.GenerateFromPassword([]byte("adminsecret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, srv.db.Create(&models.User{
		Name:         "Root",
		Email:        "root@example.com",
		PasswordHash: string(hash),
		IsAdmin:      true,
	}).Error)

	_, adminToken := srv.login("root@example.com", "adminsecret")

	w = srv.do(http.MethodGet, "/api/admin/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var users dto.UserListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Equal(t, int64(2), users.Pagination.Total)
}

func TestProjectAndTaskFlow(t *testing.T) {
	srv := newTestServer(t)

	alice, aliceToken := srv.signupAndLogin("Alice", "alice@example.com")
	_, bobToken := srv.signupAndLogin("Bob", "bob@example.com")

	w := srv.do(http.MethodPost, "/api/projects", aliceToken, map[string]string{"name": "Apollo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var project dto.ProjectDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))
	projectPath := "/api/projects/" + formatID(project.ID)

	w = srv.do(http.MethodGet, projectPath+"/role", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"manager"`)

	w = srv.do(http.MethodGet, projectPath+"/role", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"status":false,"message":"User is not part of this project."}`, w.Body.String())

	w = srv.do(http.MethodGet, projectPath, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(http.MethodPost, projectPath+"/tasks", aliceToken, map[string]interface{}{
		"title":       "Build rocket",
		"priority":    "high",
		"due_date":    "2030-07-20",
		"assigned_to": alice.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))

	w = srv.do(http.MethodGet, projectPath+"/tasks/highest-priority", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var derived dto.DerivedTaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &derived))
	require.NotNil(t, derived.Task)
	assert.Equal(t, task.ID, derived.Task.ID)

	w = srv.do(http.MethodGet, "/api/tasks/assigned?status=new", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Build rocket")

	taskPath := "/api/tasks/" + formatID(task.ID)
	w = srv.do(http.MethodDelete, taskPath, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(http.MethodDelete, taskPath, aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = srv.do(http.MethodDelete, taskPath, aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"already_deleted":true`)
}

func TestProjectManagerGate(t *testing.T) {
	srv := newTestServer(t)

	_, aliceToken := srv.signupAndLogin("Alice", "alice@example.com")
	bob, bobToken := srv.signupAndLogin("Bob", "bob@example.com")

	w := srv.do(http.MethodPost, "/api/projects", aliceToken, map[string]string{"name": "Apollo"})
	require.Equal(t, http.StatusCreated, w.Code)

	var project dto.ProjectDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))
	projectPath := "/api/projects/" + formatID(project.ID)

	w = srv.do(http.MethodPost, projectPath+"/members", aliceToken, map[string]interface{}{
		"user_id": bob.ID,
		"role":    "developer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = srv.do(http.MethodPatch, projectPath, bobToken, map[string]string{"name": "Renamed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(http.MethodGet, projectPath+"/members", bobToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionCookieAuthenticates(t *testing.T) {
	srv := newTestServer(t)
	srv.signupAndLogin("Alice", "alice@example.com")

	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "supersecret"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")
}

func TestAnonymousRequestsAreRejected(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(http.MethodGet, "/api/projects", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthMetricsAndNoRoute(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)

	w = srv.do(http.MethodGet, "/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
	assert.Contains(t, w.Body.String(), `path="/health"`)
}

func TestNewRouter_RequiresJWTSecret(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	_, err := NewRouter(Dependencies{
		Config:   &config.Config{JWTTTLHours: 1},
		Log:      log,
		Registry: prometheus.NewRegistry(),
	})
	assert.Error(t, err)
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
