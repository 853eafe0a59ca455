package net

// SessionStore holds the sessions the game loop has accepted, keyed by ID.
// Game loop only.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session, 256)}
}

func (s *SessionStore) Add(sess *Session)        { s.sessions[sess.ID] = sess }
func (s *SessionStore) Remove(id uint64)         { delete(s.sessions, id) }
func (s *SessionStore) Get(id uint64) *Session   { return s.sessions[id] }
func (s *SessionStore) Len() int                 { return len(s.sessions) }
func (s *SessionStore) Raw() map[uint64]*Session { return s.sessions }

func (s *SessionStore) ForEach(fn func(*Session)) {
	for _, sess := range s.sessions {
		fn(sess)
	}
}
