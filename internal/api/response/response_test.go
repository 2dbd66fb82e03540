package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
)

func decode(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func TestErrorEnvelope(t *testing.T) {
	resp := Error(errors.NewLedgerUnavailableError("failed to query transactions", stderrors.New("secret internal detail")), "req-1")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.NotContains(t, resp.Body, "secret internal detail")

	body := decode(t, resp.Body)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "LEDGER_UNAVAILABLE", body["error"])
	desc := body["error_description"].(map[string]interface{})
	assert.Equal(t, "failed to query transactions", desc["message"])
	assert.Equal(t, "req-1", body["metadata"].(map[string]interface{})["requestId"])
}

func TestFromError(t *testing.T) {
	resp := FromError(errors.NewValidationError("bad date"), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = FromError(stderrors.New("dial tcp 10.0.0.1: connection refused"), "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, resp.Body, "10.0.0.1")
	assert.Equal(t, "INTERNAL_ERROR", decode(t, resp.Body)["error"])
}

func TestAuthenticationError(t *testing.T) {
	resp := AuthenticationError("missing token", "req-2")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Headers["WWW-Authenticate"], "Bearer")
}

func TestSuccessEnvelope(t *testing.T) {
	resp := OK(map[string]string{"hello": "world"}, "req-3")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "world", body["data"].(map[string]interface{})["hello"])
	meta := body["metadata"].(map[string]interface{})
	assert.Equal(t, "1.0", meta["version"])
	assert.NotEmpty(t, meta["timestamp"])

	assert.Equal(t, http.StatusCreated, Created(nil, "").StatusCode)
	assert.Equal(t, http.StatusNoContent, NoContent().StatusCode)
}
