package backendtest

import (
	"context"
	"sync"

	"github.com/mmynk/kotconnect/internal/auth"
)

// accountStore implements auth.AccountStore in memory.
type accountStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*auth.Account
	byName map[string]int64
}

func newAccountStore() *accountStore {
	return &accountStore{
		byID:   make(map[int64]*auth.Account),
		byName: make(map[string]int64),
	}
}

func (s *accountStore) CreateAccount(_ context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[account.Username]; exists {
		return auth.ErrUsernameExists
	}
	s.nextID++
	account.ID = s.nextID
	stored := *account
	s.byID[stored.ID] = &stored
	s.byName[stored.Username] = stored.ID
	return nil
}

func (s *accountStore) GetAccountByUsername(_ context.Context, username string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[username]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	a := *s.byID[id]
	return &a, nil
}

func (s *accountStore) GetAccountByID(_ context.Context, id int64) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

// update applies fn to a copy of the account and stores it, keeping the
// username index in sync.
func (s *accountStore) update(id int64, fn func(*auth.Account) error) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[id]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	next := *current
	if err := fn(&next); err != nil {
		return nil, err
	}
	if next.Username != current.Username {
		if _, taken := s.byName[next.Username]; taken {
			return nil, auth.ErrUsernameExists
		}
		delete(s.byName, current.Username)
		s.byName[next.Username] = id
	}
	s.byID[id] = &next
	cp := next
	return &cp, nil
}

func (s *accountStore) delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byID[id]; ok {
		delete(s.byName, a.Username)
		delete(s.byID, id)
	}
}

type dormRecord struct {
	id      int64
	name    string
	code    string
	members []int64
	tasks   []int64
	events  []int64
}

type taskRecord struct {
	id          int64
	dormID      int64
	title       string
	date        string
	taskType    string
	description string
	assignee    int64
	done        bool
}

type eventRecord struct {
	id           int64
	dormID       int64
	name         string
	date         string
	location     string
	description  string
	organizer    int64
	done         bool
	participants []int64
}

type shareRecord struct {
	id     int64
	userID int64
	amount float64
	paid   bool
}

type expenseRecord struct {
	id      int64
	dormID  int64
	title   string
	total   float64
	creator int64
	shares  []*shareRecord
}

func (s *Server) newIDLocked() int64 {
	s.nextID++
	return s.nextID
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
