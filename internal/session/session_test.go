package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/issue-tracker-ui/internal/config"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "a@b.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return signed
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, TokenExpired(signedToken(t, now.Add(time.Hour)), now))
	assert.True(t, TokenExpired(signedToken(t, now.Add(-time.Minute)), now))
	assert.False(t, TokenExpired("opaque-token", now))
}

func newSessionRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	cfg.SessionStore = config.SessionStoreCookie
	cfg.SessionSecret = "secret"
	backend, err := NewBackend(cfg, nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Middleware(backend))
	return r
}

func TestGinStore_SaveLoadClear(t *testing.T) {
	r := newSessionRouter(t)
	token := signedToken(t, time.Now().Add(time.Hour))

	r.POST("/save", func(c *gin.Context) {
		err := FromContext(c).Save(models.Session{
			Token: token,
			User:  models.User{Username: "a@b.com", IsSuperuser: true},
		})
		require.NoError(t, err)
		c.Status(http.StatusNoContent)
	})
	r.GET("/load", func(c *gin.Context) {
		sess, ok := FromContext(c).Load()
		if !ok {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.String(http.StatusOK, "%s %t", sess.User.Username, sess.User.IsSuperuser)
	})
	r.POST("/clear", func(c *gin.Context) {
		require.NoError(t, FromContext(c).Clear())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/save", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/load", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@b.com true", w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/clear", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	cleared := w.Result().Cookies()
	require.NotEmpty(t, cleared)

	req = httptest.NewRequest(http.MethodGet, "/load", nil)
	for _, ck := range cleared {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGinStore_ExpiredTokenIsDropped(t *testing.T) {
	r := newSessionRouter(t)
	expired := signedToken(t, time.Now().Add(-time.Hour))

	r.GET("/", func(c *gin.Context) {
		store := FromContext(c)
		require.NoError(t, store.Save(models.Session{Token: expired}))
		_, ok := store.Load()
		c.String(http.StatusOK, "%t", ok)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "false", w.Body.String())
}

// brokenSession holds values in memory and fails every Save.
type brokenSession struct {
	sessions.Session
	values map[any]any
}

func (b *brokenSession) Get(key any) any      { return b.values[key] }
func (b *brokenSession) Set(key any, val any) { b.values[key] = val }
func (b *brokenSession) Clear()               { clear(b.values) }
func (b *brokenSession) Save() error          { return errors.New("cookie too large") }

func TestGinStore_LoadLogsFailedDrop(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	store := &GinStore{
		s: &brokenSession{values: map[any]any{
			constants.SessionKeyToken: signedToken(t, time.Now().Add(-time.Hour)),
		}},
		now: time.Now,
		log: logrus.NewEntry(logger),
	}

	_, ok := store.Load()

	assert.False(t, ok)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "token expired", entry.Data["reason"])
	assert.ErrorContains(t, entry.Data[logrus.ErrorKey].(error), "cookie too large")
}

func TestNewBackend(t *testing.T) {
	cfg := config.Load()

	cfg.SessionStore = config.SessionStoreDatabase
	_, err := NewBackend(cfg, nil)
	assert.ErrorIs(t, err, ErrNoSessionDatabase)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	store, err := NewBackend(cfg, db)
	require.NoError(t, err)
	assert.NotNil(t, store)

	cfg.SessionStore = "memcached"
	_, err = NewBackend(cfg, nil)
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(models.Session{Token: "t1", User: models.User{Username: "a@b.com"}})

	sess, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "t1", sess.Token)

	require.NoError(t, store.Clear())
	_, ok = store.Load()
	assert.False(t, ok)
	assert.Equal(t, 1, store.ClearCount())
}
