package controllers

import (
	"fmt"
	"log"

	"github.com/clinova/clinic-booking/db"
	"github.com/clinova/clinic-booking/models"
	"github.com/clinova/clinic-booking/services"
	"github.com/clinova/clinic-booking/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

type AuthController struct {
	Auth    *services.AuthService
	Wallets *services.WalletService
}

func NewAuthController(auth *services.AuthService, wallets *services.WalletService) *AuthController {
	return &AuthController{Auth: auth, Wallets: wallets}
}

// Register godoc
// @Summary Register a new user
// @Description Register a new user and open their wallet
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} models.User
// @Failure 400 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ctl *AuthController) Register(c *fiber.Ctx) error {
	user := new(models.User)

	if err := c.BodyParser(user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if user.Email == "" || user.Password == "" || user.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields",
		})
	}

	var existingUser models.User
	if db.DB.Where("email = ?", user.Email).First(&existingUser).RowsAffected > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User with this email already exists",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}
	user.Password = string(hashedPassword)

	// Default to the patient role when none is given
	if user.RoleID == 0 {
		var patientRole models.Role
		if err := db.DB.Where("name = ?", "patient").First(&patientRole).Error; err != nil {
			log.Printf("Error finding patient role: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to assign default role. Role 'patient' not found.",
			})
		}
		user.RoleID = patientRole.ID
		user.Role = patientRole
	} else {
		var role models.Role
		if err := db.DB.First(&role, user.RoleID).Error; err != nil {
			log.Printf("Error finding role: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to assign role. Role not found.",
			})
		}
		user.Role = role
	}

	if err := db.DB.Create(&user).Error; err != nil {
		log.Printf("Error creating user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user: " + err.Error(),
		})
	}

	// Every patient gets one wallet at registration
	if user.Role.Name == "patient" {
		if _, err := ctl.Wallets.CreateWallet(user.ID, ""); err != nil {
			log.Printf("Error creating wallet for user %d: %v", user.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create wallet",
			})
		}
	}

	user.Password = ""

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login godoc
// @Summary Authenticate a user
// @Description Authenticate and issue a token pair. Repeated failures lock the account.
// @Tags auth
// @Accept json
// @Produce json
// @Failure 401 {object} utils.ErrorResponse
// @Failure 423 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ctl *AuthController) Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	user, tokens, err := ctl.Auth.Login(input.Email, input.Password)
	if err != nil {
		return respondServiceError(c, "Login failed", err)
	}

	return c.JSON(fiber.Map{
		"token":        tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"user": fiber.Map{
			"id":      user.ID,
			"name":    user.Name,
			"email":   user.Email,
			"role":    user.Role.Name,
			"role_id": user.RoleID,
		},
	})
}

// GetUserProfile returns the current user's profile
func (ctl *AuthController) GetUserProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*jwt.Token)
	claims := user.Claims.(jwt.MapClaims)
	userID := claims["id"].(float64)

	var userProfile models.User
	db.DB.Preload("Role").Where("id = ?", uint(userID)).First(&userProfile)

	userProfile.Password = ""

	return c.JSON(userProfile)
}

// Logout doesn't actually invalidate the token as JWTs are stateless
// For a more secure implementation, you'd need to use a token blacklist
func (ctl *AuthController) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Successfully logged out",
	})
}

// RefreshToken generates a new access token using a refresh token
func (ctl *AuthController) RefreshToken(c *fiber.Ctx) error {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken"`
	}

	refreshRequest := new(RefreshRequest)
	if err := c.BodyParser(refreshRequest); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	token, err := ctl.Auth.Refresh(refreshRequest.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid refresh token",
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
	})
}

// ForgotPassword sends a one-time reset code to the account email.
func (ctl *AuthController) ForgotPassword(c *fiber.Ctx) error {
	type ForgotInput struct {
		Email string `json:"email"`
	}

	input := new(ForgotInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	code, err := ctl.Auth.CreatePasswordReset(c.Context(), input.Email)
	if err != nil {
		return respondServiceError(c, "Failed to create reset code", err)
	}

	body := fmt.Sprintf(`
		<p>Your password reset code is <strong>%s</strong>.</p>
		<p>It expires in 10 minutes. If you did not request this, ignore this email.</p>
	`, code)
	go func() {
		if err := utils.SendEmail(input.Email, "Password Reset Code", body); err != nil {
			log.Printf("Failed to send reset email to %s: %v", input.Email, err)
		}
	}()

	return c.JSON(fiber.Map{
		"message": "Reset code sent",
	})
}

// ResetPassword consumes the reset code and sets a new password.
func (ctl *AuthController) ResetPassword(c *fiber.Ctx) error {
	type ResetInput struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}

	input := new(ResetInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if err := ctl.Auth.ResetPassword(c.Context(), input.Email, input.Code, input.NewPassword); err != nil {
		return respondServiceError(c, "Failed to reset password", err)
	}

	return c.JSON(fiber.Map{
		"message": "Password updated",
	})
}
