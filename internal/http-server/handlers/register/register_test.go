package register

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"clubreg/entity"
	"clubreg/lib/api/response"
)

type coreMock struct {
	mock.Mock
}

func (m *coreMock) Register(reg *entity.Registration) (*entity.Receipt, error) {
	args := m.Called(reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Receipt), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func perform(t *testing.T, handler http.HandlerFunc, body any) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	payload, err := json.Marshal(body)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp response.Response
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func validBody() map[string]any {
	return map[string]any{
		"name":  "Asha",
		"age":   27,
		"phone": "5550001",
	}
}

func TestRegister_Created(t *testing.T) {
	core := new(coreMock)
	core.On("Register", mock.Anything).Return(&entity.Receipt{
		MembershipID: "KSASC0001",
		Status:       entity.StatusPendingApproval,
	}, nil).Once()

	rec, resp := perform(t, New(newNoopLogger(), core), validBody())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	core.AssertExpectations(t)
}

func TestRegister_InvalidBody(t *testing.T) {
	core := new(coreMock)

	rec, resp := perform(t, New(newNoopLogger(), core), map[string]any{
		"age": 27,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	core.AssertNotCalled(t, "Register", mock.Anything)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	core := new(coreMock)
	core.On("Register", mock.Anything).Return(nil, entity.ErrDuplicatePhone).Once()

	rec, resp := perform(t, New(newNoopLogger(), core), validBody())

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.StatusMessage, "already exists")
}

func TestRegister_AllocationExhausted(t *testing.T) {
	core := new(coreMock)
	core.On("Register", mock.Anything).Return(nil, entity.ErrAllocationExhausted).Once()

	rec, resp := perform(t, New(newNoopLogger(), core), validBody())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, resp.Success)
}

func TestRegister_PolicyValidation(t *testing.T) {
	core := new(coreMock)
	core.On("Register", mock.Anything).Return(nil, entity.ErrValidation).Once()

	rec, resp := perform(t, New(newNoopLogger(), core), validBody())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}
