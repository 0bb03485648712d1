package artists

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/pagination"
	"github.com/sopatech/backstage/internal/validate"
)

// stubService returns a canned error from every operation.
type stubService struct {
	err error
}

func (s *stubService) Create(context.Context, identity.Identity, CreateInput) (*Artist, error) {
	return nil, s.err
}

func (s *stubService) Get(context.Context, identity.Identity, string) (*Artist, error) {
	return nil, s.err
}

func (s *stubService) List(context.Context, identity.Identity, pagination.Page) (*pagination.Result[Artist], error) {
	return nil, s.err
}

func (s *stubService) Update(context.Context, identity.Identity, string, UpdateInput) (*Artist, error) {
	return nil, s.err
}

func (s *stubService) Delete(context.Context, identity.Identity, string) error {
	return s.err
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", ErrArtistNotFound, http.StatusNotFound},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"email taken", ErrEmailTaken, http.StatusConflict},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tc.err)
			require.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestHandler_ValidationErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, validate.FieldErrors{"name": "required"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	fields := body["fields"].(map[string]any)
	require.Equal(t, "required", fields["name"])
}

func TestHandler_Unauthenticated(t *testing.T) {
	h := NewHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/artists", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_BadJSON(t *testing.T) {
	h := NewHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/artists", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	// No identity on the request: rejected before the body is read.
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
