package identity

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/internal/repository"
	"github.com/pharmily/pharmily-api/pkg/auth"
	"github.com/pharmily/pharmily-api/pkg/errors"
	"github.com/pharmily/pharmily-api/pkg/security"
)

const (
	defaultDirectoryTTL = 5 * time.Minute
	hospitalsKey        = "hospitals"
	doctorsKeyPrefix    = "doctors:"
)

var errInvalidCredentials = errors.NewEmptyResult("invalid credentials")

type Service struct {
	userRepo repository.UserRepository
	hasher   security.PasswordHasher
	jwtSvc   auth.JWTService
	cache    *cache.Cache

	// dummyHash keeps unknown usernames as slow as wrong passwords.
	dummyHash string
}

func NewService(userRepo repository.UserRepository, hasher security.PasswordHasher, jwtSvc auth.JWTService, directoryTTL time.Duration) *Service {
	if directoryTTL <= 0 {
		directoryTTL = defaultDirectoryTTL
	}
	dummy, _ := hasher.Hash("pharmily-dummy-password")
	return &Service{
		userRepo:  userRepo,
		hasher:    hasher,
		jwtSvc:    jwtSvc,
		cache:     cache.New(directoryTTL, 2*directoryTTL),
		dummyHash: dummy,
	}
}

// Signup creates a user with the profile matching its role.
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	user := req.ToUser()
	if err := user.CheckProfile(); err != nil {
		return nil, errors.NewBadRequest(err.Error(), err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if stderrors.Is(err, security.ErrPasswordTooShort) {
			return nil, errors.NewBadRequest(fmt.Sprintf("password must be at least %d characters", security.MinPasswordLen), err)
		}
		if stderrors.Is(err, security.ErrPasswordTooLong) {
			return nil, errors.NewBadRequest(fmt.Sprintf("password must not exceed %d bytes", security.MaxPasswordBytes), err)
		}
		return nil, errors.NewInternal(err)
	}
	user.PasswordHash = hash

	if _, err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicateUsername) {
			return nil, errors.NewConflict("username already exists", err)
		}
		return nil, errors.NewInternal(err)
	}

	if user.Role == model.RoleDoctor {
		s.invalidateDirectory()
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("User signed up")

	return user, nil
}

// Authenticate returns the user only when username, password and role all match.
// Any mismatch is reported as the same empty result.
func (s *Service) Authenticate(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	user, err := s.userRepo.GetByUsernameAndRole(ctx, username, role)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			_ = s.hasher.Compare(s.dummyHash, password)
			return nil, errInvalidCredentials
		}
		return nil, errors.NewInternal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues an access token.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.Authenticate(ctx, req.Username, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, errors.ErrEmptyResult) {
			return nil, &errors.AppError{Code: errors.ErrUnauthorized, Message: "invalid credentials", Err: err}
		}
		return nil, err
	}

	token, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtSvc.Expiry().Seconds()),
		User:        user,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFound("user", err)
		}
		return nil, errors.NewInternal(err)
	}
	return user, nil
}

// GetDoctor returns the user only if it is a doctor.
func (s *Service) GetDoctor(ctx context.Context, id int64) (*model.User, *model.DoctorProfile, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil, errors.NewNotFound("doctor", err)
		}
		return nil, nil, err
	}
	doctor, ok := user.Doctor()
	if !ok {
		return nil, nil, errors.NewNotFound("doctor", nil)
	}
	return user, doctor, nil
}

// ListHospitals returns the distinct hospitals doctors registered with.
func (s *Service) ListHospitals(ctx context.Context) ([]string, error) {
	if cached, ok := s.cache.Get(hospitalsKey); ok {
		return cached.([]string), nil
	}

	hospitals, err := s.userRepo.ListHospitals(ctx)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	s.cache.SetDefault(hospitalsKey, hospitals)
	return hospitals, nil
}

// ListDoctors returns the doctors of a hospital, or an empty result when
// nobody is registered there.
func (s *Service) ListDoctors(ctx context.Context, hospital string) ([]*model.DoctorSummary, error) {
	key := doctorsKeyPrefix + hospital
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.DoctorSummary), nil
	}

	doctors, err := s.userRepo.ListDoctorsByHospital(ctx, hospital)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if len(doctors) == 0 {
		return nil, errors.NewEmptyResult(fmt.Sprintf("no doctors registered at %s", hospital))
	}
	s.cache.SetDefault(key, doctors)
	return doctors, nil
}

func (s *Service) invalidateDirectory() {
	s.cache.Flush()
}
