package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/issue-tracker-ui/internal/config"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	"gorm.io/gorm"
)

var ErrNoSessionDatabase = errors.New("database session store requires a database connection")

// NewBackend builds the sessions.Store selected by cfg.SessionStore. db is only
// used by the database store and may be nil otherwise.
func NewBackend(cfg *config.Config, db *gorm.DB) (sessions.Store, error) {
	secret := []byte(cfg.SessionSecret)

	var store sessions.Store
	switch cfg.SessionStore {
	case config.SessionStoreCookie:
		store = cookie.NewStore(secret)
	case config.SessionStoreRedis:
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		s, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // username (empty for default user)
			"",        // password (empty = no password)
			secret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = s
	case config.SessionStoreDatabase:
		if db == nil {
			return nil, ErrNoSessionDatabase
		}
		store = gormsessions.NewStore(db, true, secret)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   constants.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// Middleware installs the browser session under the service's cookie name.
func Middleware(store sessions.Store) gin.HandlerFunc {
	return sessions.Sessions(constants.SessionCookieName, store)
}
