package server

import (
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func tokenPayload(pair *service.TokenPair) fiber.Map {
	return fiber.Map{
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
		"user":          pair.User,
	}
}

// Signup handles POST /api/v1/auth/signup
// @Summary User signup
// @Description Register a new student account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signupRequest true "Signup request"
// @Success 201 {object} object{success=bool,message=string,token=string,refresh_token=string,user=models.User}
// @Failure 400 {object} models.Envelope
// @Failure 409 {object} models.Envelope
// @Router /v1/auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	pair, err := s.authService.Signup(c.UserContext(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "User Registered Successfully", tokenPayload(pair))
}

// Login handles POST /api/v1/auth/login
// @Summary User login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login request"
// @Success 200 {object} object{success=bool,message=string,token=string,refresh_token=string,user=models.User}
// @Failure 401 {object} models.Envelope
// @Router /v1/auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	pair, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Logged In Successfully", tokenPayload(pair))
}

// Refresh handles POST /api/v1/auth/refresh
// @Summary Rotate refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body refreshRequest true "Refresh request"
// @Success 200 {object} object{success=bool,message=string,token=string,refresh_token=string}
// @Failure 401 {object} models.Envelope
// @Router /v1/auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	pair, err := s.authService.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Token Cycle Completed", tokenPayload(pair))
}

// Logout handles POST /api/v1/auth/logout
// @Summary Revoke the current access token and refresh token
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope
// @Router /v1/auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	token, _ := middleware.BearerToken(c)
	if err := s.authService.Logout(c.UserContext(), token); err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Logged Out Successfully", nil)
}

// Me handles GET /api/v1/auth/me
// @Summary Reload the current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,message=string,user=models.User}
// @Router /v1/auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.authService.Me(c.UserContext(), currentActor(c))
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "User Reloaded", fiber.Map{"user": user})
}
