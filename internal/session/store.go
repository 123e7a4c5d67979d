// Package session keeps the login token and user profile between page loads.
//
// Store is the only way the rest of the service reads or writes that state:
// the login flow and the façade's 401 handler write it, everything else reads.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
)

// Store reads and writes the session of one browser.
type Store interface {
	// Load returns the session, or false when the browser is not logged in
	// or its token has expired.
	Load() (models.Session, bool)
	Save(sess models.Session) error
	Clear() error
}

// GinStore keeps the session in a gin-contrib/sessions session.
// Methods are serialized: the list page may clear the session from two
// goroutines at once.
type GinStore struct {
	mu  sync.Mutex
	s   sessions.Session
	now func() time.Time
	log *logrus.Entry
}

// FromContext binds a Store to the request's session. The sessions middleware
// must be installed. Failed writes on Load are logged with the request logger
// when one is set.
func FromContext(c *gin.Context) *GinStore {
	log := logrus.NewEntry(logrus.StandardLogger())
	if value, ok := c.Get(constants.ContextKeyLogger); ok {
		if entry, ok := value.(*logrus.Entry); ok {
			log = entry
		}
	}
	return &GinStore{
		s:   sessions.Default(c),
		now: time.Now,
		log: log.WithField("component", "session"),
	}
}

func (g *GinStore) Load() (models.Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	token, _ := g.s.Get(constants.SessionKeyToken).(string)
	if token == "" {
		return models.Session{}, false
	}
	if TokenExpired(token, g.now()) {
		g.drop("token expired")
		return models.Session{}, false
	}

	var user models.User
	if raw, ok := g.s.Get(constants.SessionKeyUser).(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			g.drop("stored user is malformed")
			return models.Session{}, false
		}
	}

	return models.Session{Token: token, User: user}, true
}

func (g *GinStore) Save(sess models.Session) error {
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("failed to encode session user: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.s.Set(constants.SessionKeyToken, sess.Token)
	g.s.Set(constants.SessionKeyUser, string(user))
	if err := g.s.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (g *GinStore) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clear()
}

// drop clears a session Load refuses to return. Load has no error result, so
// a failed write is only logged; the stale cookie is retried next request.
func (g *GinStore) drop(reason string) {
	if err := g.clear(); err != nil {
		g.log.WithError(err).WithField("reason", reason).Error("failed to drop session")
	}
}

func (g *GinStore) clear() error {
	g.s.Clear()
	if err := g.s.Save(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// MemoryStore is a Store held in memory. It counts writes so callers can
// check how often the session was cleared.
type MemoryStore struct {
	mu      sync.Mutex
	sess    models.Session
	present bool
	Saves   int
	Clears  int
}

// NewMemoryStore returns a store that already holds sess when its token is set.
func NewMemoryStore(sess models.Session) *MemoryStore {
	return &MemoryStore{sess: sess, present: sess.Token != ""}
}

func (m *MemoryStore) Load() (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess, m.present
}

func (m *MemoryStore) Save(sess models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = sess
	m.present = true
	m.Saves++
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = models.Session{}
	m.present = false
	m.Clears++
	return nil
}

// ClearCount returns how many times Clear was called.
func (m *MemoryStore) ClearCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Clears
}
