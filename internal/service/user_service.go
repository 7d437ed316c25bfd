package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-live/profile-service/internal/audit"
	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
	"github.com/weiawesome/wes-io-live/profile-service/internal/notify"
	"github.com/weiawesome/wes-io-live/profile-service/internal/profile"
	"github.com/weiawesome/wes-io-live/profile-service/internal/repository"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/log"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/pubsub"
)

// userServiceImpl implements UserService interface.
type userServiceImpl struct {
	repo     repository.UserRepository
	profiles profile.Client
	mailer   notify.Mailer
	events   notify.EventEmitter
	audit    *audit.Logger
	logger   zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	repo repository.UserRepository,
	profiles profile.Client,
	mailer notify.Mailer,
	events notify.EventEmitter,
	logger zerolog.Logger,
) UserService {
	logger = logger.With().Str(log.FieldComponent, "user_service").Logger()
	return &userServiceImpl{
		repo:     repo,
		profiles: profiles,
		mailer:   mailer,
		events:   events,
		audit:    audit.New(logger),
		logger:   logger,
	}
}

// CreateUser validates the input, rejects known emails, persists the user
// and then notifies by mail and event bus.
func (s *userServiceImpl) CreateUser(ctx context.Context, name, email string) (*domain.User, error) {
	l := log.CtxOr(ctx, s.logger)

	req, err := domain.ValidateCreateUser(domain.CreateUserRequest{Name: name, Email: email})
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		l.Error().Err(err).Str(log.FieldEmail, req.Email).Msg("failed to look up user by email")
		return nil, err
	}
	if len(existing) > 0 {
		s.audit.LogWithDetail(ctx, audit.ActionCreateDuplicate, existing[0].ID, req.Email, "user already registered")
		return nil, domain.ErrDuplicateUser
	}

	user, err := s.repo.Insert(ctx, &domain.User{Name: req.Name, Email: req.Email})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			s.audit.LogWithDetail(ctx, audit.ActionCreateDuplicate, "", req.Email, "user registered concurrently")
			return nil, domain.ErrDuplicateUser
		}
		l.Error().Err(err).Str(log.FieldEmail, req.Email).Msg("failed to insert user")
		return nil, err
	}

	s.audit.Log(ctx, audit.ActionCreateUser, user.ID, "user created")

	if err := s.mailer.SendConfirmation(ctx, user.Email); err != nil {
		l.Warn().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to send confirmation mail")
	}

	payload := pubsub.UserCreatedPayload{UserID: user.ID, Email: user.Email}
	if err := s.events.Emit(ctx, pubsub.TopicUserCreated, user.ID, payload); err != nil {
		l.Warn().Err(err).Str(log.FieldUserID, user.ID).Str(log.FieldTopic, pubsub.TopicUserCreated).Msg("failed to emit event")
	}

	return user, nil
}

// GetUserByID fetches the user's profile from the remote profile API.
func (s *userServiceImpl) GetUserByID(ctx context.Context, userID string) (*domain.Profile, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}

	p, err := s.profiles.FetchProfile(ctx, userID)
	if err != nil {
		l := log.CtxOr(ctx, s.logger)
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to fetch profile")
		return nil, err
	}

	s.audit.Log(ctx, audit.ActionGetProfile, userID, "profile fetched")
	return p, nil
}
