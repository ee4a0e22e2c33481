package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/handler"
)

type mockSyncService struct {
	calls    int
	response dto.SyncResponse
	err      error
}

func (m *mockSyncService) Sync(_ context.Context) (dto.SyncResponse, error) {
	m.calls++
	if m.err != nil {
		return dto.SyncResponse{}, m.err
	}
	return m.response, nil
}

func TestSyncHandler_TriggerSuccess(t *testing.T) {
	svc := &mockSyncService{response: dto.SyncResponse{Courses: 2, Assignments: 7}}
	app, group := newAuthedApp("/api/sync", "user-1")
	handler.NewSyncHandler(svc, zerolog.New(io.Discard)).Register(group)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/sync/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool             `json:"success"`
		Data    dto.SyncResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, 2, response.Data.Courses)
	require.Equal(t, 7, response.Data.Assignments)
	require.Equal(t, 1, svc.calls)
}

func TestSyncHandler_TriggerUpstreamFailure(t *testing.T) {
	svc := &mockSyncService{err: errors.New("canvas request failed: status 503")}
	app, group := newAuthedApp("/api/sync", "user-1")
	handler.NewSyncHandler(svc, zerolog.New(io.Discard)).Register(group)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/sync/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}
