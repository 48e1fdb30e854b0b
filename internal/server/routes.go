package server

import (
	"net/http"
	"time"

	"github.com/berfenger/surplus2goe/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type modeRequest struct {
	Mode string `json:"mode"`
}

type socProtectionRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/api/status", s.StatusHandler)
	e.GET("/api/mode", s.GetModeHandler)
	e.POST("/api/mode", s.SetModeHandler)
	e.POST("/api/soc_protection", s.SocProtectionHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) StatusHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Snapshot())
}

func (s *Server) GetModeHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"mode": s.store.Mode()})
}

// SetModeHandler routes the mode change through the master so the control
// actor applies it and publishes the matching MQTT state updates.
func (s *Server) SetModeHandler(c echo.Context) error {
	var req modeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.SetOperatingModeRequest{Mode: req.Mode}, 10*time.Second).Result()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	response, ok := res.(domain.SetOperatingModeResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unexpected response"})
	}
	if response.HasResponseError() {
		respErr := response.GetResponseError()
		if domain.IsValidationError(respErr) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": respErr.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": respErr.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "mode": response.Mode})
}

func (s *Server) SocProtectionHandler(c echo.Context) error {
	var req socProtectionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.SetSocProtectionRequest{Enable: req.Enabled}, 10*time.Second).Result()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	response, ok := res.(domain.SetSocProtectionResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unexpected response"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "enabled": response.Enable})
}
