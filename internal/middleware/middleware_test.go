package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/auth"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUserRepo struct {
	repository.UserRepository
	users map[uint64]*models.User
}

func (r *stubUserRepo) FindByID(id uint64) (*models.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubMembershipRepo struct {
	repository.MembershipRepository
	members map[[2]uint64]*models.Membership
}

func (r *stubMembershipRepo) Find(projectID, userID uint64) (*models.Membership, error) {
	if member, ok := r.members[[2]uint64{projectID, userID}]; ok {
		return member, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// withCaller stands in for ResolveIdentity
func withCaller(caller *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller != nil {
			c.Set(constants.ContextKeyCaller, caller)
			c.Set(constants.ContextKeyUserID, caller.ID)
		}
		c.Next()
	}
}

func TestAuthorizeAdmin(t *testing.T) {
	assert.False(t, AuthorizeAdmin(nil))
	assert.False(t, AuthorizeAdmin(&models.User{ID: 1}))
	assert.True(t, AuthorizeAdmin(&models.User{ID: 1, IsAdmin: true}))
}

func TestRequireAdmin(t *testing.T) {
	const denied = `{"status":false,"message":"Unauthorized. Admin access only."}`

	tests := []struct {
		name       string
		caller     *models.User
		wantStatus int
		wantCalls  int
	}{
		{name: "anonymous", caller: nil, wantStatus: http.StatusForbidden, wantCalls: 0},
		{name: "regular user", caller: &models.User{ID: 2, Email: "dev@example.com"}, wantStatus: http.StatusForbidden, wantCalls: 0},
		{name: "admin", caller: &models.User{ID: 1, Email: "admin@example.com", IsAdmin: true}, wantStatus: http.StatusOK, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			var seenPath string

			r := gin.New()
			r.POST("/admin/users/:id", withCaller(tt.caller), RequireAdmin(), func(c *gin.Context) {
				calls++
				seenPath = c.Request.URL.Path
				c.JSON(http.StatusOK, gin.H{"status": true})
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/admin/users/7?x=1", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCalls == 0 {
				assert.JSONEq(t, denied, w.Body.String())
			} else {
				assert.Equal(t, "/admin/users/7", seenPath)
			}
		})
	}
}

func TestRequireAdmin_DoesNotNeedRequireAuth(t *testing.T) {
	r := gin.New()
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAuth(t *testing.T) {
	r := gin.New()
	r.GET("/anon", withCaller(nil), RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/user", withCaller(&models.User{ID: 3}), RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anon", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResolveIdentity_BearerToken(t *testing.T) {
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	users := &stubUserRepo{users: map[uint64]*models.User{5: {ID: 5, Email: "dev@example.com"}}}
	log, _ := logtest.NewNullLogger()

	var resolved *models.User
	r := gin.New()
	r.Use(ResolveIdentity(users, tokens, log))
	r.GET("/me", func(c *gin.Context) {
		resolved = GetCaller(c)
		c.Status(http.StatusOK)
	})

	token, err := tokens.Generate(5, "dev@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resolved)
	assert.Equal(t, uint64(5), resolved.ID)

	// Invalid tokens and unknown users resolve to no caller without rejecting
	for _, header := range []string{"Bearer garbage", "Basic abc"} {
		resolved = nil
		req = httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", header)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, resolved)
	}

	ghost, err := tokens.Generate(99, "ghost@example.com")
	require.NoError(t, err)
	resolved = nil
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+ghost)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, resolved)
}

func TestResolveIdentity_Session(t *testing.T) {
	users := &stubUserRepo{users: map[uint64]*models.User{8: {ID: 8, Email: "dev@example.com"}}}
	log, _ := logtest.NewNullLogger()

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-session-secret"))))
	r.Use(ResolveIdentity(users, nil, log))
	r.POST("/login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, uint64(8))
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})
	r.GET("/me", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": userID})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":8}`, w.Body.String())
}

func TestRequireProjectMember(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	members := &stubMembershipRepo{members: map[[2]uint64]*models.Membership{
		{1, 10}: {ProjectID: 1, UserID: 10, Role: models.RoleManager},
		{1, 11}: {ProjectID: 1, UserID: 11, Role: models.RoleTester},
	}}
	membershipService := services.NewMembershipService(members, nil, log)

	newRouter := func(caller *models.User) *gin.Engine {
		r := gin.New()
		group := r.Group("/projects/:id", withCaller(caller), RequireProjectMember(membershipService, log))
		group.GET("", func(c *gin.Context) {
			member, ok := GetMembership(c)
			require.True(t, ok)
			c.JSON(http.StatusOK, gin.H{"role": member.Role})
		})
		group.DELETE("", RequireProjectManager(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	w := httptest.NewRecorder()
	newRouter(&models.User{ID: 11}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"tester"}`, w.Body.String())

	w = httptest.NewRecorder()
	newRouter(&models.User{ID: 12}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"status":false,"message":"User is not part of this project."}`, w.Body.String())

	w = httptest.NewRecorder()
	newRouter(&models.User{ID: 11}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	newRouter(&models.User{ID: 11}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	newRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	newRouter(&models.User{ID: 11}).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/projects/1", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	newRouter(&models.User{ID: 10}).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/projects/1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(constants.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(constants.RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(constants.RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, seen)
}

func TestLogger(t *testing.T) {
	log, hook := logtest.NewNullLogger()

	r := gin.New()
	r.Use(RequestID(), Logger(log))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(constants.RequestIDHeader, "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, "/missing", entry.Data["path"])
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Contains(t, entry.Data, "latency_ms")
}

func TestPrometheusMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	promMiddleware, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(promMiddleware.Handler())
	r.GET("/projects/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/projects/123", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/projects/456", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "/projects/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(promMiddleware.requestCount.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(promMiddleware.requestCount))
	assert.Equal(t, 2, testutil.CollectAndCount(promMiddleware.requestDuration))

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
