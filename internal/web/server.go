package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"like-bot/internal/service"
)

const (
	msgVerifySuccess = "✅ Verification successful. Bot will now process your like."
	msgVerifyFailure = "❌ Link expired or already used."
	msgVerifyError   = "⚠️ Something went wrong. Please try again later."
)

// Server hosts the verification endpoint clicked from the shared link.
type Server struct {
	verification *service.VerificationService
	srv          *http.Server
}

func New(addr string, verification *service.VerificationService) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{verification: verification}

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/verify/:code", s.handleVerify)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) handleVerify(c *gin.Context) {
	code := c.Param("code")

	ok, err := s.verification.Confirm(c.Request.Context(), code)
	if err != nil {
		log.Printf("confirm code: %v", err)
		c.String(http.StatusInternalServerError, msgVerifyError)
		return
	}
	if !ok {
		c.String(http.StatusOK, msgVerifyFailure)
		return
	}

	log.Printf("[info] code %s verified", code)
	c.String(http.StatusOK, msgVerifySuccess)
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
