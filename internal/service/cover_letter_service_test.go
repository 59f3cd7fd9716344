package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/folio/folio/internal/apperror"
	"github.com/folio/folio/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoverLetterService() (*CoverLetterService, *mockCoverTokenStore, *mockRenderer, *clock.Fixed) {
	store := newMockCoverTokenStore()
	renderer := &mockRenderer{}
	clk := &clock.Fixed{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewCoverLetterService(store, renderer, clk, "https://folio.example.com/", time.Hour, "5+ years", testLogger())
	return svc, store, renderer, clk
}

func TestCoverLetter_CreateToken(t *testing.T) {
	svc, store, _, clk := newTestCoverLetterService()

	link, token, err := svc.CreateToken(context.Background(), " Acme ", "jobs@acme.test")
	require.NoError(t, err)

	assert.Equal(t, "https://folio.example.com/cover-letter/"+token.Token, link)
	assert.Equal(t, "Acme", token.CompanyName)
	assert.Equal(t, clk.T.Add(time.Hour), token.ExpiresAt)
	assert.Contains(t, store.tokens, token.Token)
}

func TestCoverLetter_CreateTokenValidation(t *testing.T) {
	svc, _, _, _ := newTestCoverLetterService()

	_, _, err := svc.CreateToken(context.Background(), "", "jobs@acme.test")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, _, err = svc.CreateToken(context.Background(), "Acme", "  ")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestCoverLetter_Render(t *testing.T) {
	svc, _, renderer, clk := newTestCoverLetterService()
	ctx := context.Background()

	_, token, err := svc.CreateToken(ctx, "Acme", "jobs@acme.test")
	require.NoError(t, err)

	pdf, err := svc.Render(ctx, token.Token)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF-"))
	require.Len(t, renderer.letters, 1)
	assert.Equal(t, "Acme", renderer.letters[0].Company)
	assert.Equal(t, "5+ years", renderer.letters[0].YearsExperience)

	clk.Advance(time.Hour)
	_, err = svc.Render(ctx, token.Token)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = svc.Render(ctx, "no-such-token")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCoverLetter_RenderFailures(t *testing.T) {
	svc, store, renderer, _ := newTestCoverLetterService()
	ctx := context.Background()

	_, token, err := svc.CreateToken(ctx, "Acme", "jobs@acme.test")
	require.NoError(t, err)

	renderer.err = errors.New("font missing")
	_, err = svc.Render(ctx, token.Token)
	assert.True(t, apperror.Is(err, apperror.KindInternal))

	store.err = errors.New("timeout")
	_, err = svc.Render(ctx, token.Token)
	assert.True(t, apperror.Is(err, apperror.KindInternal))
}
