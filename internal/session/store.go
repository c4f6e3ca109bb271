package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"clicknail/internal/infra"
	"clicknail/internal/sqlinline"
)

// CookieName is the signed cookie carrying the session identifier.
const CookieName = "clicknail.sid"

// MaxAge is the sliding session lifetime. Every authenticated request that
// saves the session pushes the expiry out again.
const MaxAge = 7 * 24 * 60 * 60

// PGStore is a gorilla/sessions Store keeping session state server-side in
// PostgreSQL. The cookie only carries the session id, signed and encrypted by
// securecookie; everything else lives in the sessions table.
type PGStore struct {
	sql    infra.SQLExecutor
	codecs []securecookie.Codec
	opts   *sessions.Options
}

// NewPGStore builds the store. secure should be true outside development so
// the cookie is only sent over HTTPS.
func NewPGStore(sql infra.SQLExecutor, secret string, secure bool) *PGStore {
	return &PGStore{
		sql:    sql,
		codecs: securecookie.CodecsFromPairs([]byte(secret)),
		opts: &sessions.Options{
			Path:     "/",
			MaxAge:   MaxAge,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Get returns a cached session for the request, creating one if needed.
func (s *PGStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session identified by the request cookie, or returns a fresh
// one when the cookie is absent, invalid, or the stored session has expired.
func (s *PGStore) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := sessions.NewSession(s, name)
	optsCopy := *s.opts
	sess.Options = &optsCopy
	sess.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return sess, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, cookie.Value, &id, s.codecs...); err != nil {
		return sess, nil
	}
	if err := s.load(r, sess, id); err != nil {
		return sess, nil
	}
	sess.ID = id
	sess.IsNew = false
	return sess, nil
}

// Save persists the session and (re)issues the cookie. A MaxAge <= 0 deletes
// the server-side row and expires the cookie, which is how logout works.
func (s *PGStore) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	if sess.Options.MaxAge <= 0 {
		if sess.ID != "" {
			if _, err := s.sql.Exec(r.Context(), sqlinline.QDeleteSession, sess.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(sess.Name(), "", sess.Options))
		return nil
	}

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}

	encoded, err := securecookie.EncodeMulti(sess.Name(), sess.Values, s.codecs...)
	if err != nil {
		return err
	}
	userID, _ := sess.Values["user_id"].(string)
	expires := time.Now().Add(time.Duration(sess.Options.MaxAge) * time.Second)
	if _, err := s.sql.Exec(r.Context(), sqlinline.QUpsertSession, sess.ID, userID, []byte(encoded), expires); err != nil {
		return err
	}

	cookieValue, err := securecookie.EncodeMulti(sess.Name(), sess.ID, s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(sess.Name(), cookieValue, sess.Options))
	return nil
}

// PurgeExpired removes stale rows. Intended to be called periodically from
// the server process.
func (s *PGStore) PurgeExpired(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteExpiredSessions)
	return err
}

func (s *PGStore) load(r *http.Request, sess *sessions.Session, id string) error {
	row := s.sql.QueryRow(r.Context(), sqlinline.QSelectSession, id)
	var data []byte
	var expires time.Time
	if err := row.Scan(&data, &expires); err != nil {
		return err
	}
	return securecookie.DecodeMulti(sess.Name(), string(data), &sess.Values, s.codecs...)
}

var _ sessions.Store = (*PGStore)(nil)
