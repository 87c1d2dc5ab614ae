package beckn

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beckn-mesh/network/internal/logger"
)

func panicHandler(rec interface{}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(rec)
	})
}

func recoverAndDecode(t *testing.T, rec interface{}) (*httptest.ResponseRecorder, Nack) {
	t.Helper()
	handler := RecoverMiddleware(logger.NewDefaultLogger())(panicHandler(rec))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/search", nil))

	var nack Nack
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nack))
	return w, nack
}

func TestRecoverMiddleware_PlainPanicIsCoreError(t *testing.T) {
	w, nack := recoverAndDecode(t, "boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrorTypeCore, nack.Error.Type)
	assert.Equal(t, CodeInternal, nack.Error.Code)
}

func TestRecoverMiddleware_ClassifiesMeshErrorByCode(t *testing.T) {
	merr := logger.NewMeshError(logger.ErrCodePolicyError, "finder fee missing", nil)
	_, nack := recoverAndDecode(t, merr)
	assert.Equal(t, ErrorTypePolicy, nack.Error.Type)
	assert.Equal(t, CodePolicy, nack.Error.Code)
}

func TestRecoverMiddleware_ClassifiesWrappedError(t *testing.T) {
	_, nack := recoverAndDecode(t, errors.New("generic failure"))
	assert.Equal(t, ErrorTypeCore, nack.Error.Type)
	assert.Equal(t, CodeInternal, nack.Error.Code)
}
