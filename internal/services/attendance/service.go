package attendance

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/MadhavPujara/CheckInSync/internal/apierr"
	"github.com/MadhavPujara/CheckInSync/internal/credentials"
	"github.com/MadhavPujara/CheckInSync/internal/rest"
)

// BaseURL is the Zoho People forms API
const BaseURL = "https://people.zoho.com/api/forms"

// Messages for credential failures raised before any request is sent
const (
	MsgKeysNotFound   = "Zoho API keys not found"
	MsgKeysUnreadable = "Zoho API keys could not be read"
)

// Service records attendance in Zoho People
type Service struct {
	client rest.Executor
	store  credentials.Store
	logger *zap.Logger
}

// NewService creates an attendance service. client must be bound to BaseURL
// or a compatible endpoint.
func NewService(client rest.Executor, store credentials.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: client,
		store:  store,
		logger: logger.Named("attendance"),
	}
}

// checkInResponse is the body Zoho returns for a check-in
type checkInResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CheckIn records a check-in at location ("lat,lng")
func (s *Service) CheckIn(ctx context.Context, location string) error {
	req, err := s.authorize(ctx, rest.NewRequest(http.MethodPost, "/attendance/checkIn"))
	if err != nil {
		return err
	}

	resp, err := s.client.Send(ctx, req.WithBody(map[string]string{"location": location}))
	if err != nil {
		return err
	}

	var body checkInResponse
	if err := resp.Decode(&body); err != nil {
		s.logger.Debug("Unrecognised check-in response", zap.Error(err))
		return nil
	}
	s.logger.Debug("Checked in", zap.Bool("success", body.Success), zap.String("message", body.Message))
	return nil
}

// ValidateCredentials reports whether the stored keys are accepted. Every
// failure, including missing keys, reports false.
func (s *Service) ValidateCredentials(ctx context.Context) bool {
	req, err := s.authorize(ctx, rest.NewRequest(http.MethodGet, "/user"))
	if err != nil {
		s.logger.Debug("Credential check failed", zap.Error(err))
		return false
	}
	if _, err := s.client.Send(ctx, req); err != nil {
		s.logger.Debug("Credential check failed", zap.Error(err))
		return false
	}
	return true
}

// authorize adds the bearer headers, failing before any request is sent
// when no access token is stored
func (s *Service) authorize(ctx context.Context, req rest.Request) (rest.Request, error) {
	keys, err := s.store.AttendanceKeys(ctx)
	if err != nil {
		return req, apierr.NewNetworkError(MsgKeysUnreadable, fmt.Errorf("attendance credentials: %w", err))
	}
	if keys == nil || keys.AccessToken == "" {
		return req, apierr.NewValidationError(MsgKeysNotFound)
	}
	return req.WithBearer(keys.AccessToken), nil
}
