package handler_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/handler"
	"github.com/noah-isme/ingat-go-api/internal/models"
	"github.com/noah-isme/ingat-go-api/internal/service"
)

type mockCompletionService struct {
	lastUserID  string
	lastQuery   string
	lastRequest dto.CompleteRequest

	items  []dto.WeekDigestItem
	result dto.CompleteResponse
	err    error
}

func (m *mockCompletionService) ListIncomplete(_ context.Context, userID string, _ time.Time, query string) ([]dto.WeekDigestItem, error) {
	m.lastUserID = userID
	m.lastQuery = query
	return m.items, m.err
}

func (m *mockCompletionService) Complete(_ context.Context, userID string, _ time.Time, req dto.CompleteRequest) (dto.CompleteResponse, error) {
	m.lastUserID = userID
	m.lastRequest = req
	if m.err != nil {
		return dto.CompleteResponse{}, m.err
	}
	return m.result, nil
}

func (m *mockCompletionService) SetCompletion(_ context.Context, userID string, _ models.AssignmentKey, _ bool, _ time.Time) error {
	m.lastUserID = userID
	return m.err
}

func TestCompletionHandler_PendingPassesQuery(t *testing.T) {
	svc := &mockCompletionService{items: []dto.WeekDigestItem{
		{AssignmentID: 301, Name: "Essay draft"},
	}}
	app, group := newAuthedApp("/api/completions", "user-1")
	handler.NewCompletionHandler(svc, zerolog.New(io.Discard)).Register(group)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/completions/pending?query=essay", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                 `json:"success"`
		Data    []dto.WeekDigestItem `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Len(t, response.Data, 1)
	require.Equal(t, "essay", svc.lastQuery)
	require.Equal(t, "user-1", svc.lastUserID)
}

func TestCompletionHandler_CompleteSuccess(t *testing.T) {
	svc := &mockCompletionService{result: dto.CompleteResponse{Marked: 2}}
	app, group := newAuthedApp("/api/completions", "user-1")
	handler.NewCompletionHandler(svc, zerolog.New(io.Discard)).Register(group)

	payload := dto.CompleteRequest{Selection: "1, 3"}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/completions/", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.CompleteResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, 2, response.Data.Marked)
	require.Equal(t, "1, 3", svc.lastRequest.Selection)
}

func TestCompletionHandler_NothingSelected(t *testing.T) {
	svc := &mockCompletionService{err: service.ErrNothingSelected}
	app, group := newAuthedApp("/api/completions", "user-1")
	handler.NewCompletionHandler(svc, zerolog.New(io.Discard)).Register(group)

	payload := dto.CompleteRequest{Selection: "99"}
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/completions/", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
