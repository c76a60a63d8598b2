package api

import (
	"fmt"
	"regexp"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/medcheck/api/internal/apperrors"
	"github.com/medcheck/api/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// genericResetMessage never reveals whether an account exists
const genericResetMessage = "If an account exists with this email, you will receive a password reset link."

// signupHandler handles user registration
func (s *Server) signupHandler(ctx *fasthttp.RequestCtx) {
	var req models.SignupRequest
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Validate input
	if err := s.validateSignup(&req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	// Check if email already exists
	exists, err := s.userService.EmailExists(ctx, req.Email)
	if err != nil {
		s.logger.Error("Failed to check email existence", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	if exists {
		s.sendErrorResponse(ctx, fasthttp.StatusConflict, "User with this email already exists")
		return
	}

	// Hash password before it is ever persisted
	passwordHash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	// Create user. A concurrent signup can win the INSERT race after
	// the EmailExists pre-check passed; that surfaces as a conflict,
	// not a server error.
	user, err := s.userService.CreateUser(ctx, req.Email, passwordHash, req.Name)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindConflict {
			s.sendAppError(ctx, err, "Failed to create user")
			return
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Failed to create user")
		return
	}

	s.sendJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"message": "User created successfully",
		"user":    s.userService.ToUserResponse(user),
	})
}

// loginHandler handles user login
func (s *Server) loginHandler(ctx *fasthttp.RequestCtx) {
	var req models.LoginRequest
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Validate input
	if err := s.validateLogin(&req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	// Get user by email
	user, err := s.userService.GetUserByEmail(ctx, req.Email)
	if err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Verify password
	if err := s.authService.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Generate JWT token
	token, err := s.authService.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	// Return user data and token
	response := map[string]interface{}{
		"user":  s.userService.ToUserResponse(user),
		"token": token,
	}

	s.sendSuccessResponse(ctx, response)
}

// forgotPasswordHandler starts the password-reset flow. The response is
// identical whether or not an account exists, and email delivery
// failures are swallowed for the same reason.
func (s *Server) forgotPasswordHandler(ctx *fasthttp.RequestCtx) {
	var req models.ForgotPasswordRequest
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	if req.Email == "" {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, "Email is required")
		return
	}

	user, err := s.userService.GetUserByEmail(ctx, req.Email)
	if err != nil {
		// Don't reveal that the user doesn't exist
		s.sendSuccessResponse(ctx, map[string]interface{}{"message": genericResetMessage})
		return
	}

	token, expiry, err := s.authService.GenerateResetToken()
	if err != nil {
		s.logger.Error("Failed to generate reset token", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	if err := s.userService.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		s.logger.Error("Failed to store reset token", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", s.config.App.BaseURL, token)
	if err := s.emailService.SendResetEmail(user.Email, resetURL); err != nil {
		s.logger.Error("Failed to send reset email", zap.Error(err))
	}

	s.sendSuccessResponse(ctx, map[string]interface{}{"message": genericResetMessage})
}

// resetPasswordHandler completes the password-reset flow
func (s *Server) resetPasswordHandler(ctx *fasthttp.RequestCtx) {
	var req models.ResetPasswordRequest
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	if req.Token == "" || req.Password == "" {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, "Token and password are required")
		return
	}

	if len(req.Password) < 8 {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := s.userService.GetUserByResetToken(ctx, req.Token)
	if err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, "Invalid or expired reset token. Please request a new password reset.")
		return
	}

	passwordHash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	if err := s.userService.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		s.logger.Error("Failed to update password", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Failed to update password")
		return
	}

	s.sendSuccessResponse(ctx, map[string]interface{}{
		"message": "Password reset successful. Please sign in with your new password.",
	})
}

// validateSignup validates user registration input
func (s *Server) validateSignup(req *models.SignupRequest) error {
	if req.Email == "" {
		return fmt.Errorf("email is required")
	}

	if !isValidEmail(req.Email) {
		return fmt.Errorf("invalid email format")
	}

	if req.Password == "" {
		return fmt.Errorf("password is required")
	}

	if len(req.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	return nil
}

// validateLogin validates user login input
func (s *Server) validateLogin(req *models.LoginRequest) error {
	if req.Email == "" {
		return fmt.Errorf("email is required")
	}

	if !isValidEmail(req.Email) {
		return fmt.Errorf("invalid email format")
	}

	if req.Password == "" {
		return fmt.Errorf("password is required")
	}

	return nil
}

// isValidEmail validates email format
func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
