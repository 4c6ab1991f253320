package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lawn-engine/internal/logger"
	"lawn-engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		code int
		body string
	}{
		{fmt.Errorf("%w: lawn_id is required", service.ErrInputValidation), http.StatusBadRequest, `{"error":"input validation failed: lawn_id is required"}`},
		{fmt.Errorf("%w: lawn_id 3", service.ErrLawnNotFound), http.StatusNotFound, ""},
		{service.ErrRunNotFound, http.StatusNotFound, ""},
		{service.ErrJobNotFound, http.StatusNotFound, ""},
		{service.ErrParameterNotFound, http.StatusNotFound, ""},
		{service.ErrParcelNotFound, http.StatusNotFound, ""},
		{fmt.Errorf("%w: timeout", service.ErrDataUnavailable), http.StatusServiceUnavailable, `{"error":"data service unavailable"}`},
		{fmt.Errorf("%w: disk full", service.ErrPersistence), http.StatusInternalServerError, `{"error":"lawn engine run failed"}`},
		{errors.New("boom"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		respondError(ctx, logger.Nop(), c.err)
		assert.Equal(t, c.code, w.Code, c.err.Error())
		if c.body != "" {
			assert.JSONEq(t, c.body, w.Body.String())
		}
	}
}

func TestUintParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, v := range []string{"0", "-1", "abc", "99999999999"} {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Params = gin.Params{{Key: "id", Value: v}}
		_, ok := uintParam(ctx, "id")
		assert.False(t, ok, v)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Params = gin.Params{{Key: "id", Value: "17"}}
	id, ok := uintParam(ctx, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(17), id)
}
