package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainauth "homio/internal/domain/auth"
	domainlistings "homio/internal/domain/listings"
	domainuser "homio/internal/domain/user"
)

// identity is the uniqueness key for accounts: one per email and role.
type identity struct {
	email string
	role  domainuser.Role
}

func identityOf(u *domainuser.User) identity {
	return identity{email: domainuser.NormalizeEmail(u.Email), role: u.Role}
}

type UserRepository struct {
	mu         sync.RWMutex
	users      map[domainuser.ID]*domainuser.User
	identities map[identity]domainuser.ID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:      make(map[domainuser.ID]*domainuser.User),
		identities: make(map[identity]domainuser.ID),
	}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(id)
}

func (r *UserRepository) ByEmail(ctx context.Context, email string, role domainuser.Role) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.identities[identity{email: domainuser.NormalizeEmail(email), role: role}]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return r.lookup(id)
}

// Save inserts or replaces a user. Changing the email of an existing user
// releases the old identity.
func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	switch {
	case user == nil || strings.TrimSpace(string(user.ID)) == "":
		return domainuser.ErrIDRequired
	case domainuser.NormalizeEmail(user.Email) == "":
		return domainuser.ErrEmailRequired
	}
	key := identityOf(user)

	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, taken := r.identities[key]; taken && owner != user.ID {
		return domainuser.ErrEmailAlreadyUsed
	}
	if previous, ok := r.users[user.ID]; ok {
		delete(r.identities, identityOf(previous))
	}
	r.identities[key] = user.ID
	r.users[user.ID] = cloneUser(user)
	return nil
}

// lookup expects r.mu to be held.
func (r *UserRepository) lookup(id domainuser.ID) (*domainuser.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return cloneUser(u), nil
}

func cloneUser(u *domainuser.User) *domainuser.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Wishlist = append([]domainlistings.ListingID(nil), u.Wishlist...)
	return &c
}

// SessionStore keeps bearer sessions in process. Expired sessions are
// evicted when read.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[domainauth.Token]domainauth.Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domainauth.Token]domainauth.Session),
		now:      time.Now,
	}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil || session.Token.Blank() {
		return domainauth.ErrTokenRequired
	}
	s.mu.Lock()
	s.sessions[session.Token] = *session
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	if session.Expired(s.now()) {
		delete(s.sessions, token)
		return nil, domainauth.ErrSessionNotFound
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

var (
	_ domainuser.Repository   = (*UserRepository)(nil)
	_ domainauth.SessionStore   = (*SessionStore)(nil)
)
