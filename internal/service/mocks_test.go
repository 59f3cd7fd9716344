package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/folio/folio/internal/coverletter"
	"github.com/folio/folio/internal/mail"
	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/repository"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type mockAccessStore struct {
	active map[string]bool
	err    error
}

func (m *mockAccessStore) IsActive(_ context.Context, email string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.active[email], nil
}

type mockOTPStore struct {
	mu        sync.Mutex
	records   map[string][]*models.OTPRecord
	conflicts int
	rotateErr error
	findErr   error
	markErr   error
}

func newMockOTPStore() *mockOTPStore {
	return &mockOTPStore{records: make(map[string][]*models.OTPRecord)}
}

func (m *mockOTPStore) Rotate(_ context.Context, rec *models.OTPRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conflicts > 0 {
		m.conflicts--
		return 0, repository.ErrConflict
	}
	if m.rotateErr != nil {
		return 0, m.rotateErr
	}

	n := 0
	for _, r := range m.records[rec.Email] {
		if !r.Used {
			r.Used = true
			n++
		}
	}
	stored := *rec
	m.records[rec.Email] = append(m.records[rec.Email], &stored)
	return n, nil
}

func (m *mockOTPStore) FindActive(_ context.Context, email string, now time.Time) (*models.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}

	candidates := make([]*models.OTPRecord, 0)
	for _, r := range m.records[email] {
		if r.Active(now) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	found := *candidates[0]
	return &found, nil
}

func (m *mockOTPStore) MarkUsed(_ context.Context, rec *models.OTPRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.markErr != nil {
		return m.markErr
	}
	for _, r := range m.records[rec.Email] {
		if r.ID == rec.ID {
			if r.Used {
				return repository.ErrAlreadyUsed
			}
			r.Used = true
			rec.Used = true
			return nil
		}
	}
	return repository.ErrAlreadyUsed
}

func (m *mockOTPStore) all(email string) []models.OTPRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.OTPRecord, 0, len(m.records[email]))
	for _, r := range m.records[email] {
		out = append(out, *r)
	}
	return out
}

func (m *mockOTPStore) unused(email string) []models.OTPRecord {
	var out []models.OTPRecord
	for _, r := range m.all(email) {
		if !r.Used {
			out = append(out, r)
		}
	}
	return out
}

type mockMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
	// failFor makes sends to these recipients fail.
	failFor map[string]error
}

func (m *mockMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	for _, to := range msg.To {
		if err, ok := m.failFor[to]; ok {
			return err
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockMailer) Close() error { return nil }

func (m *mockMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type mockThrottle struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (m *mockThrottle) Allow(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return false, m.err
	}
	if m.keys == nil {
		m.keys = make(map[string]bool)
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *mockThrottle) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	delete(m.keys, key)
	return nil
}

type mockProjectStore struct {
	mu       sync.Mutex
	projects map[string]models.Project
	err      error
}

func newMockProjectStore() *mockProjectStore {
	return &mockProjectStore{projects: make(map[string]models.Project)}
}

func (m *mockProjectStore) List(_ context.Context, publishedOnly bool) ([]models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	var out []models.Project
	for _, p := range m.projects {
		if publishedOnly && !p.Published {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockProjectStore) GetBySlug(_ context.Context, slug string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.projects[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *mockProjectStore) Create(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if _, ok := m.projects[p.Slug]; ok {
		return repository.ErrConflict
	}
	m.projects[p.Slug] = *p
	return nil
}

func (m *mockProjectStore) Update(_ context.Context, oldSlug string, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if _, ok := m.projects[oldSlug]; !ok {
		return repository.ErrNotFound
	}
	if oldSlug != p.Slug {
		if _, taken := m.projects[p.Slug]; taken {
			return repository.ErrConflict
		}
		delete(m.projects, oldSlug)
	}
	m.projects[p.Slug] = *p
	return nil
}

func (m *mockProjectStore) Delete(_ context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if _, ok := m.projects[slug]; !ok {
		return repository.ErrNotFound
	}
	delete(m.projects, slug)
	return nil
}

type mockCoverTokenStore struct {
	mu     sync.Mutex
	tokens map[string]models.CoverToken
	err    error
}

func newMockCoverTokenStore() *mockCoverTokenStore {
	return &mockCoverTokenStore{tokens: make(map[string]models.CoverToken)}
}

func (m *mockCoverTokenStore) Create(_ context.Context, t *models.CoverToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.tokens[t.Token] = *t
	return nil
}

func (m *mockCoverTokenStore) Get(_ context.Context, token string) (*models.CoverToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

type mockContactStore struct {
	saved []models.ContactMessage
	err   error
}

func (m *mockContactStore) Create(_ context.Context, msg *models.ContactMessage) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, *msg)
	return nil
}

type mockRenderer struct {
	mu      sync.Mutex
	letters []coverletter.Letter
	err     error
}

func (m *mockRenderer) Generate(l coverletter.Letter) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	m.letters = append(m.letters, l)
	return []byte("%PDF-1.3 " + l.Company), nil
}
