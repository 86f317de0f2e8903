package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "tasks": [
    {
      "name": "t0",
      "duration": 1,
      "desired_traits": [1],
      "initial_configuration": {"pos": [0,0,0]},
      "terminal_configuration": {"pos": [1,0,0]}
    }
  ],
  "robots": [
    {"name": "r0", "species": 0, "initial_configuration": {"pos": [0,0,0]}}
  ],
  "species": [
    {"name": "ground", "traits": [1], "speed": 1}
  ],
  "itags_parameters": {},
  "scheduler_parameters": {}
}`

func TestHandleSolveReturnsSuccessResult(t *testing.T) {
	srv := NewServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewBufferString(sampleDocument))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Run-Id"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
}

func TestHandleSolveRejectsInvalidDocument(t *testing.T) {
	srv := NewServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewBufferString(`{"tasks": [], "robots": [], "species": []}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestHandleHealthz(t *testing.T) {
	srv := NewServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
