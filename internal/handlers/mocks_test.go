package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/folio/folio/internal/coverletter"
	"github.com/folio/folio/internal/mail"
	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/repository"
)

type fakeAccessStore struct {
	active map[string]bool
}

func (f *fakeAccessStore) IsActive(_ context.Context, email string) (bool, error) {
	return f.active[email], nil
}

type fakeOTPStore struct {
	mu      sync.Mutex
	records []*models.OTPRecord
}

func (f *fakeOTPStore) Rotate(_ context.Context, rec *models.OTPRecord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.records {
		if r.Email == rec.Email && !r.Used {
			r.Used = true
			n++
		}
	}
	stored := *rec
	f.records = append(f.records, &stored)
	return n, nil
}

func (f *fakeOTPStore) FindActive(_ context.Context, email string, now time.Time) (*models.OTPRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.Email == email && r.Active(now) {
			found := *r
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOTPStore) MarkUsed(_ context.Context, rec *models.OTPRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.records {
		if r.ID == rec.ID {
			if r.Used {
				return repository.ErrAlreadyUsed
			}
			r.Used = true
			return nil
		}
	}
	return repository.ErrAlreadyUsed
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) Close() error { return nil }

func (f *fakeMailer) last() mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeProjectStore struct {
	mu       sync.Mutex
	projects map[string]models.Project
}

func (f *fakeProjectStore) List(_ context.Context, publishedOnly bool) ([]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Project
	for _, p := range f.projects {
		if !publishedOnly || p.Published {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeProjectStore) GetBySlug(_ context.Context, slug string) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.projects[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProjectStore) Create(_ context.Context, p *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.projects[p.Slug]; ok {
		return repository.ErrConflict
	}
	f.projects[p.Slug] = *p
	return nil
}

func (f *fakeProjectStore) Update(_ context.Context, oldSlug string, p *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.projects[oldSlug]; !ok {
		return repository.ErrNotFound
	}
	if oldSlug != p.Slug {
		if _, ok := f.projects[p.Slug]; ok {
			return repository.ErrConflict
		}
		delete(f.projects, oldSlug)
	}
	f.projects[p.Slug] = *p
	return nil
}

func (f *fakeProjectStore) Delete(_ context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.projects[slug]; !ok {
		return repository.ErrNotFound
	}
	delete(f.projects, slug)
	return nil
}

type fakeCoverTokenStore struct {
	mu     sync.Mutex
	tokens map[string]models.CoverToken
}

func (f *fakeCoverTokenStore) Create(_ context.Context, t *models.CoverToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[t.Token] = *t
	return nil
}

func (f *fakeCoverTokenStore) Get(_ context.Context, token string) (*models.CoverToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

type fakeContactStore struct{}

func (fakeContactStore) Create(context.Context, *models.ContactMessage) error { return nil }

type fakeRenderer struct{}

func (fakeRenderer) Generate(l coverletter.Letter) ([]byte, error) {
	return []byte("%PDF-1.3 " + l.Company), nil
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (f *fakeRevoker) Revoke(_ context.Context, jti string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = true
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[jti], nil
}
