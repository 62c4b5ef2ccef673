package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/assist"
	"github.com/spigell/careeros/internal/feedback"
	"github.com/spigell/careeros/internal/matching"
	"github.com/spigell/careeros/internal/profile"
	"github.com/spigell/careeros/internal/roadmap"
	"github.com/spigell/careeros/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy", "service": ServiceName})
}

// roadmap answers 422 on invalid input and 502 when the workflow fails.
func (s *Server) roadmap(c echo.Context) error {
	var req roadmap.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
	}

	result, err := s.deps.Roadmap.Generate(c.Request().Context(), req)
	switch {
	case errors.Is(err, roadmap.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, roadmap.Payload{Error: err.Error()})
	case err != nil:
		return c.JSON(http.StatusBadGateway, roadmap.Payload{Error: err.Error()})
	}

	rm := result.State.Roadmap
	return c.JSON(http.StatusOK, roadmap.Payload{Roadmap: &rm})
}

// profile builds a profile from a plain-text résumé body and stores it.
func (s *Server) profile(c echo.Context) error {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxResumeBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "cannot read résumé"})
	}

	p, err := profile.Build(string(data))
	if err != nil {
		if errors.Is(err, profile.ErrEmptyText) {
			return c.JSON(http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		}
		return s.internal(c, "build profile", err)
	}

	if err := s.deps.Profiles.SaveProfile(c.Request().Context(), p); err != nil {
		return s.internal(c, "save profile", err)
	}

	s.log.Info("profile stored", zap.String("profile_id", p.ID), zap.Int("skills", len(p.HardSkills)))

	return c.JSON(http.StatusOK, map[string]any{"profile_id": p.ID, "data": p})
}

func (s *Server) matches(c echo.Context) error {
	found, err := s.deps.Matches.Find(c.Request().Context(), c.Param("profile_id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorBody{Error: "Profile not found"})
		}
		return s.internal(c, "find matches", err)
	}
	if found == nil {
		found = []matching.Match{}
	}

	return c.JSON(http.StatusOK, map[string]any{"matches": found})
}

func (s *Server) feedback(c echo.Context) error {
	var req feedback.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
	}

	res, err := s.deps.Feedback.Process(c.Request().Context(), req)
	switch {
	case errors.Is(err, feedback.ErrProfileNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, feedback.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case err != nil:
		return s.internal(c, "process feedback", err)
	}

	return c.JSON(http.StatusOK, res)
}

func (s *Server) postMortem(c echo.Context) error {
	var req assist.PostMortemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
	}

	res, err := s.deps.Assistant.PostMortem(c.Request().Context(), req)
	if err != nil {
		return s.assistError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) tailor(c echo.Context) error {
	var req assist.TailorRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
	}

	res, err := s.deps.Assistant.Tailor(c.Request().Context(), req)
	if err != nil {
		return s.assistError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) audit(c echo.Context) error {
	var req assist.AuditRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
	}

	res, err := s.deps.Assistant.Audit(c.Request().Context(), req)
	if err != nil {
		return s.assistError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) assistError(c echo.Context, err error) error {
	if errors.Is(err, assist.ErrValidation) {
		return c.JSON(http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	}
	return s.internal(c, "assistant", err)
}

func (s *Server) internal(c echo.Context, op string, err error) error {
	s.log.Error("request failed", zap.String("op", op), zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, errorBody{Error: fmt.Sprintf("%s failed", op)})
}
