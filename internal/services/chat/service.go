package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/MadhavPujara/CheckInSync/internal/apierr"
	"github.com/MadhavPujara/CheckInSync/internal/credentials"
	"github.com/MadhavPujara/CheckInSync/internal/rest"
)

// BaseURL is the Basecamp 3 API
const BaseURL = "https://3.basecampapi.com"

const (
	MsgKeysNotFound    = "Basecamp API keys not found"
	MsgKeysUnreadable  = "Basecamp API keys could not be read"
	MsgProjectNotFound = "Basecamp project configuration not found"
)

// Service posts messages to a Basecamp project
type Service struct {
	client rest.Executor
	store  credentials.Store
	logger *zap.Logger
}

// NewService creates a chat service
func NewService(client rest.Executor, store credentials.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: client,
		store:  store,
		logger: logger.Named("chat"),
	}
}

// Message is the body Basecamp returns for a posted message
type Message struct {
	ID      int64  `json:"id"`
	Status  string `json:"status"`
	Content string `json:"content"`
}

// CheckIn posts message to the configured project
func (s *Service) CheckIn(ctx context.Context, message string) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	if keys.AccountID == "" || keys.ProjectID == "" {
		return apierr.NewValidationError(MsgProjectNotFound)
	}

	path := fmt.Sprintf("/%s/projects/%s/messages.json",
		url.PathEscape(keys.AccountID), url.PathEscape(keys.ProjectID))
	req := rest.NewRequest(http.MethodPost, path).
		WithBearer(keys.AccessToken).
		WithBody(map[string]string{"content": message})

	resp, err := s.client.Send(ctx, req)
	if err != nil {
		return err
	}

	var posted Message
	if err := resp.Decode(&posted); err != nil {
		s.logger.Debug("Unrecognised message response", zap.Error(err))
		return nil
	}
	s.logger.Debug("Message posted", zap.Int64("message_id", posted.ID), zap.String("status", posted.Status))
	return nil
}

// ValidateCredentials reports whether the stored token is accepted. Every
// failure reports false.
func (s *Service) ValidateCredentials(ctx context.Context) bool {
	keys, err := s.keys(ctx)
	if err != nil {
		s.logger.Debug("Credential check failed", zap.Error(err))
		return false
	}

	req := rest.NewRequest(http.MethodGet, "/authorization.json").WithBearer(keys.AccessToken)
	if _, err := s.client.Send(ctx, req); err != nil {
		s.logger.Debug("Credential check failed", zap.Error(err))
		return false
	}
	return true
}

// keys returns the stored bundle, or a ValidationError when no access token
// is configured
func (s *Service) keys(ctx context.Context) (*credentials.ChatKeys, error) {
	keys, err := s.store.ChatKeys(ctx)
	if err != nil {
		return nil, apierr.NewNetworkError(MsgKeysUnreadable, fmt.Errorf("chat credentials: %w", err))
	}
	if keys == nil || keys.AccessToken == "" {
		return nil, apierr.NewValidationError(MsgKeysNotFound)
	}
	return keys, nil
}
