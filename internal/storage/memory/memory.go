// Package memory is an in-memory implementation of the Postgres repository
// used by service and router tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"showerlog/internal/models"
	"showerlog/internal/storage"

	"github.com/google/uuid"
)

type Storage struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	thoughts map[uuid.UUID]models.Thought
	saved    map[uuid.UUID]time.Time
	clock    time.Time
}

func New() *Storage {
	return &Storage{
		users:    make(map[uuid.UUID]models.User),
		thoughts: make(map[uuid.UUID]models.Thought),
		saved:    make(map[uuid.UUID]time.Time),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (s *Storage) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Storage) SaveUser(_ context.Context, email string, name *string, passHash []byte, verificationToken string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return uuid.Nil, storage.ErrUserExists
		}
	}

	now := s.tick()
	u := models.User{
		ID:                uuid.New(),
		Email:             email,
		Name:              name,
		PassHash:          passHash,
		VerificationToken: &verificationToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.users[u.ID] = u

	return u.ID, nil
}

func (s *Storage) User(_ context.Context, email string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email }, storage.ErrUserNotFound)
}

func (s *Storage) UserByID(_ context.Context, id uuid.UUID) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ID == id }, storage.ErrUserNotFound)
}

func (s *Storage) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.users[id]

	return ok, nil
}

func (s *Storage) UserByVerificationToken(_ context.Context, token string) (models.User, error) {
	return s.findUser(func(u models.User) bool {
		return u.VerificationToken != nil && *u.VerificationToken == token
	}, storage.ErrTokenNotFound)
}

func (s *Storage) UserByResetToken(_ context.Context, token string) (models.User, error) {
	return s.findUser(func(u models.User) bool {
		return u.ResetToken != nil && *u.ResetToken == token
	}, storage.ErrTokenNotFound)
}

func (s *Storage) findUser(match func(models.User) bool, notFound error) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}

	return models.User{}, notFound
}

func (s *Storage) updateUser(id uuid.UUID, fn func(u *models.User)) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	fn(&u)
	u.UpdatedAt = s.tick()
	s.users[id] = u

	return u, nil
}

func (s *Storage) SetEmailVerified(_ context.Context, id uuid.UUID) error {
	_, err := s.updateUser(id, func(u *models.User) {
		u.EmailVerified = true
		u.VerificationToken = nil
	})

	return err
}

func (s *Storage) SetVerificationToken(_ context.Context, id uuid.UUID, token string) error {
	_, err := s.updateUser(id, func(u *models.User) { u.VerificationToken = &token })

	return err
}

func (s *Storage) SaveResetToken(_ context.Context, id uuid.UUID, token string, expires time.Time) error {
	_, err := s.updateUser(id, func(u *models.User) {
		u.ResetToken = &token
		u.ResetExpires = &expires
	})

	return err
}

func (s *Storage) ResetPassword(_ context.Context, id uuid.UUID, passHash []byte) error {
	_, err := s.updateUser(id, func(u *models.User) {
		u.PassHash = passHash
		u.ResetToken = nil
		u.ResetExpires = nil
	})

	return err
}

func (s *Storage) UpdatePassword(_ context.Context, id uuid.UUID, passHash []byte) error {
	_, err := s.updateUser(id, func(u *models.User) { u.PassHash = passHash })

	return err
}

func (s *Storage) UpdateName(_ context.Context, id uuid.UUID, name *string) (models.User, error) {
	return s.updateUser(id, func(u *models.User) { u.Name = name })
}

func (s *Storage) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrUserNotFound
	}

	for tid, t := range s.thoughts {
		if t.UserID == id {
			delete(s.saved, tid)
			delete(s.thoughts, tid)
		}
	}
	delete(s.users, id)

	return nil
}

func (s *Storage) SaveThought(_ context.Context, t models.Thought) (models.Thought, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.New()
	t.CreatedAt = s.tick()
	if t.Subtasks == nil {
		t.Subtasks = []models.Subtask{}
	}
	s.thoughts[t.ID] = t

	if t.IsSaved {
		s.saved[t.ID] = t.CreatedAt
	}

	return t, nil
}

func (s *Storage) Thoughts(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Thought, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []models.Thought
	for _, t := range s.thoughts {
		if t.UserID == userID {
			list = append(list, t)
		}
	}

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

	return page(list, limit, offset), len(list), nil
}

func (s *Storage) SavedThoughts(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Thought, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []models.Thought
	for id, savedAt := range s.saved {
		t := s.thoughts[id]
		if t.UserID != userID {
			continue
		}
		at := savedAt
		t.SavedAt = &at
		list = append(list, t)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].SavedAt.After(*list[j].SavedAt) })

	return page(list, limit, offset), len(list), nil
}

func page(list []models.Thought, limit, offset int) []models.Thought {
	if offset < 0 || offset >= len(list) {
		return []models.Thought{}
	}

	end := offset + limit
	if end > len(list) {
		end = len(list)
	}

	return list[offset:end]
}

func (s *Storage) Thought(_ context.Context, userID, id uuid.UUID) (models.Thought, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.thoughts[id]
	if !ok || t.UserID != userID {
		return models.Thought{}, storage.ErrThoughtNotFound
	}

	return t, nil
}

func (s *Storage) DeleteThought(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.thoughts[id]
	if !ok || t.UserID != userID {
		return storage.ErrThoughtNotFound
	}

	delete(s.thoughts, id)
	delete(s.saved, id)

	return nil
}

func (s *Storage) ToggleSaved(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.thoughts[id]
	if !ok || t.UserID != userID {
		return false, storage.ErrThoughtNotFound
	}

	t.IsSaved = !t.IsSaved
	s.thoughts[id] = t

	if t.IsSaved {
		s.saved[id] = s.tick()
	} else {
		delete(s.saved, id)
	}

	return t.IsSaved, nil
}

func (s *Storage) UpdateSubtasks(_ context.Context, userID, id uuid.UUID, subtasks []models.Subtask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.thoughts[id]
	if !ok || t.UserID != userID {
		return storage.ErrThoughtNotFound
	}

	t.Subtasks = subtasks
	s.thoughts[id] = t

	return nil
}
