package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"legalaid/internal/services"
)

type stubResetService struct {
	requestErr error
	resetErr   error
}

func (s *stubResetService) RequestReset(string) error          { return s.requestErr }
func (s *stubResetService) ResetPassword(string, string) error { return s.resetErr }

func newResetRouter(svc services.PasswordResetService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPasswordResetHandler(svc)
	r.POST("/password-reset/request", h.Request)
	r.POST("/password-reset/confirm", h.Confirm)
	return r
}

func TestResetRequestHandlerOK(t *testing.T) {
	r := newResetRouter(&stubResetService{})
	w := postJSON(t, r, "/password-reset/request", map[string]string{"identifier": "a@x.com"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResetRequestHandlerUnknownAccount(t *testing.T) {
	r := newResetRouter(&stubResetService{requestErr: services.ErrAccountNotFound})
	w := postJSON(t, r, "/password-reset/request", map[string]string{"identifier": "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetConfirmHandlerInvalidToken(t *testing.T) {
	r := newResetRouter(&stubResetService{resetErr: services.ErrInvalidOrExpiredToken})
	w := postJSON(t, r, "/password-reset/confirm", map[string]string{
		"token": "stale", "new_password": "newpass99",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetConfirmHandlerRejectsShortPassword(t *testing.T) {
	r := newResetRouter(&stubResetService{})
	w := postJSON(t, r, "/password-reset/confirm", map[string]string{
		"token": "tok", "new_password": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
