package services

import (
	"context"

	"github.com/SantiagoArteche/ober-api/logging"
	"github.com/SantiagoArteche/ober-api/models"
	"github.com/SantiagoArteche/ober-api/repositories"
	"github.com/SantiagoArteche/ober-api/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService owns signup, login, logout and account deletion. It is the
// credential-issuance gatekeeper in front of the project/task core; the core
// itself only ever sees opaque user ids.
type UserService struct {
	users      repositories.UserRepository
	jwtService *JWTService
	captcha    *utils.CaptchaVerifier
	logger     logging.Logger
}

func NewUserService(
	users repositories.UserRepository,
	jwtService *JWTService,
	captcha *utils.CaptchaVerifier,
	logger logging.Logger,
) *UserService {
	return &UserService{
		users:      users,
		jwtService: jwtService,
		captcha:    captcha,
		logger:     logger,
	}
}

// CreateUser registers a new user. Emails are unique; the password is
// stored as a bcrypt hash and never serialized back out.
func (s *UserService) CreateUser(ctx context.Context, name, email, password, captchaToken string) (*models.User, error) {
	if s.captcha.Enabled() {
		ok, err := s.captcha.Verify(captchaToken)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, models.NewBadRequest("Captcha verification failed")
		}
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewBadRequest("User with email %s already exists", email)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email, Password: hashed}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Errorf("Event ID: USER_CREATE_FAILED, Description: failed to create user %s: %v", email, err)
		return nil, err
	}

	s.logger.Infof("Event ID: USER_CREATED, Description: user %s created", user.ID.Hex())
	return user, nil
}

// Login checks the credentials and returns a signed auth token. The error is
// the same whether the email or the password was wrong, to avoid revealing
// which accounts exist.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", models.NewUnauthorized("Wrong credentials")
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, "", models.NewUnauthorized("Wrong credentials")
	}

	token, err := s.jwtService.GenerateAuthToken(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, "", models.NewInternal(err)
	}

	s.logger.Infof("Event ID: USER_LOGIN, Description: user %s logged in", user.ID.Hex())
	return user, token, nil
}

// Logout validates the token and confirms it still maps to a live user with
// the same email. The error stays a generic "Invalid JWT" either way.
func (s *UserService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return models.NewBadRequest("Invalid JWT")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.NewBadRequest("Invalid JWT")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.Email != claims.Email {
		return models.NewBadRequest("Invalid JWT")
	}

	s.logger.Infof("Event ID: USER_LOGOUT, Description: user %s logged out", user.ID.Hex())
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFound("User with id %s not found", id.Hex())
	}

	if _, err := s.users.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.logger.Infof("Event ID: USER_DELETED, Description: user %s deleted", id.Hex())
	return nil
}
