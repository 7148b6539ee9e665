package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-backend/internal/apperr"
	"pos-backend/internal/audit"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type LoginResponse struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}

func (b *Credentials) validate() error {
	b.Username = strings.TrimSpace(b.Username)
	if len(b.Username) < 3 || len(b.Username) > 255 {
		return apperr.Validation("username", "must be between 3 and 255 characters")
	}
	if b.Password == "" {
		return apperr.Validation("password", "is required")
	}
	return nil
}

// POST /api/auth/register
func RegisterHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Credentials
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{Username: body.Username, PasswordHash: string(hash)}
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Actor:       audit.Actor{ID: user.ID, Username: user.Username},
				EntityType:  audit.EntityUser,
				EntityID:    user.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("User registered: %s", user.Username),
				After:       UserResponse{ID: user.ID, Username: user.Username},
			})
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusBadRequest, "User already exists!")
		}
		if err != nil {
			return apperr.Store("register user", err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "User registered successfully!",
			"user":    UserResponse{ID: user.ID, Username: user.Username},
		})
	}
}

// POST /api/auth/login
func LoginHandler(db *gorm.DB, secret string, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Credentials
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Username = strings.TrimSpace(body.Username)

		var user models.User
		if err := db.WithContext(c.UserContext()).Where("username = ?", body.Username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
			}
			return apperr.Store("find user", err)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
		}

		token, err := GenerateToken(secret, ttl, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not issue token")
		}

		return c.JSON(LoginResponse{ID: user.ID, Username: user.Username, AccessToken: token})
	}
}

// GET /api/auth/me
func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := CurrentActor(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, actor.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "User no longer exists")
			}
			return apperr.Store("find user", err)
		}
		return c.JSON(UserResponse{ID: user.ID, Username: user.Username})
	}
}

// GET /api/users
func ListUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []UserResponse
		if err := db.WithContext(c.UserContext()).Model(&models.User{}).
			Select("id", "username").
			Order("username asc").
			Find(&users).Error; err != nil {
			return apperr.Store("list users", err)
		}
		if users == nil {
			users = []UserResponse{}
		}
		return c.JSON(users)
	}
}
