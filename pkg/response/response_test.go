package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(fn gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	fn(c)
	var r Response
	_ = json.Unmarshal(w.Body.Bytes(), &r)
	return w, r
}

func TestEnvelope(t *testing.T) {
	w, r := call(func(c *gin.Context) { Success(c, gin.H{"a": 1}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CodeSuccess, r.Code)
	assert.Equal(t, "success", r.Message)

	w, r = call(func(c *gin.Context) { NotFound(c, "gone") })
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, r.Code)
	assert.Equal(t, "gone", r.Message)
	assert.Nil(t, r.Data)
}

func TestInternalErrorHidesDetails(t *testing.T) {
	w, r := call(func(c *gin.Context) { InternalError(c, errors.New("db password is hunter2")) })
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, r.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")
}
