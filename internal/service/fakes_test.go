package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/mailer"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory implementations of the service dependencies. Each
// returns copies so a test can't mutate stored state through a returned
// pointer, and each can be told to fail to simulate a broken backend.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	users  map[string]*model.User // keyed by ID
	nextID int
	// set to a non-nil error to simulate a database failure
	err error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.ConflictMessage("Email in use")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	if user.Subscription == "" {
		user.Subscription = model.SubscriptionStarter
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFoundMessage("User not found")
}

func (f *fakeUserRepo) update(id string, fn func(u *model.User) bool) error {
	if f.err != nil {
		return f.err
	}
	u, ok := f.users[id]
	if !ok || !fn(u) {
		return apperror.NotFound("user", id)
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserRepo) SetToken(_ context.Context, id, token string) error {
	return f.update(id, func(u *model.User) bool { u.Token = token; return true })
}

func (f *fakeUserRepo) SetAvatarURL(_ context.Context, id, url string) error {
	return f.update(id, func(u *model.User) bool { u.AvatarURL = url; return true })
}

func (f *fakeUserRepo) SetVerificationToken(_ context.Context, id, token string) error {
	return f.update(id, func(u *model.User) bool {
		if u.Verified {
			return false
		}
		u.VerificationToken = token
		return true
	})
}

func (f *fakeUserRepo) ConsumeVerificationToken(_ context.Context, token string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token == "" {
		return nil, apperror.NotFoundMessage("User not found")
	}
	for _, u := range f.users {
		if !u.Verified && u.VerificationToken == token {
			u.Verified = true
			u.VerificationToken = ""
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFoundMessage("User not found")
}

// fakeContactRepo is an in-memory repository.ContactRepository that
// scopes every call by owner like the real store.
type fakeContactRepo struct {
	contacts map[string]*model.Contact
	nextID   int
	err      error
	// lastList records the options of the most recent List call.
	lastList repository.ListOptions
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: make(map[string]*model.Contact)}
}

func (f *fakeContactRepo) Create(_ context.Context, c *model.Contact) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	c.ID = fmt.Sprintf("contact-%03d", f.nextID)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	f.contacts[c.ID] = &stored
	return nil
}

func (f *fakeContactRepo) owned(ownerID, id string) (*model.Contact, error) {
	c, ok := f.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, apperror.NotFound("contact", id)
	}
	return c, nil
}

func (f *fakeContactRepo) GetByID(_ context.Context, ownerID, id string) (*model.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, err := f.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	copied := *c
	return &copied, nil
}

func (f *fakeContactRepo) List(_ context.Context, ownerID string, opts repository.ListOptions) ([]model.Contact, error) {
	f.lastList = opts
	if f.err != nil {
		return nil, f.err
	}
	result := []model.Contact{}
	for _, c := range f.contacts {
		if c.OwnerID != ownerID {
			continue
		}
		if opts.Favorite != nil && c.Favorite != *opts.Favorite {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	if opts.Offset >= len(result) {
		return []model.Contact{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (f *fakeContactRepo) Update(_ context.Context, ownerID, id string, p model.ContactPatch) (*model.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, err := f.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Favorite != nil {
		c.Favorite = *p.Favorite
	}
	copied := *c
	return &copied, nil
}

func (f *fakeContactRepo) Delete(_ context.Context, ownerID, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, err := f.owned(ownerID, id); err != nil {
		return err
	}
	delete(f.contacts, id)
	return nil
}

// recordingMailer keeps every message it is asked to send.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) last() (mailer.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mailer.Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// memoryAvatarStore keeps uploaded files in memory.
type memoryAvatarStore struct {
	files map[string]string
	err   error
}

func (s *memoryAvatarStore) Save(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if s.files == nil {
		s.files = make(map[string]string)
	}
	s.files[key] = string(b)
	return "/avatars/" + key, nil
}

var errDatabaseDown = errors.New("database is on fire")
