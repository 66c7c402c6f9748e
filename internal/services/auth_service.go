// file: internal/services/auth_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hackspeech/internal/config"
	"hackspeech/internal/events"
	"hackspeech/internal/models"
	"hackspeech/internal/repositories"
	"hackspeech/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v3/userinfo"

	msgRegisterRequired  = "Email, mot de passe et nom requis"
	msgLoginRequired     = "Email et mot de passe requis"
	msgBadCredentials    = "Email ou mot de passe incorrect"
	msgEmailTaken        = "Cet email est déjà utilisé"
	msgGoogleEmail       = "Email requis pour la connexion Google"
	msgGoogleInvalid     = "Token Google invalide"
	msgGoogleUnavailable = "Connexion Google non configurée"
)

// googleProfile is the subset of tokeninfo and userinfo answers we read.
type googleProfile struct {
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Audience string `json:"aud"`
}

// authService implements AuthService
type authService struct {
	users      repositories.UserRepository
	profiles   *profileBuilder
	tokens     *TokenManager
	events     events.EventBus
	oauth      *oauth2.Config
	httpClient *http.Client
	cfg        config.AuthConfig
	production bool
	logger     *zap.Logger

	tokenInfoURL string
	userInfoURL  string
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repositories.UserRepository,
	profiles *profileBuilder,
	tokens *TokenManager,
	eventBus events.EventBus,
	cfg config.AuthConfig,
	production bool,
	logger *zap.Logger,
) AuthService {
	var oauthConfig *oauth2.Config
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		oauthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	return &authService{
		users:        users,
		profiles:     profiles,
		tokens:       tokens,
		events:       eventBus,
		oauth:        oauthConfig,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		cfg:          cfg,
		production:   production,
		logger:       logger,
		tokenInfoURL: googleTokenInfoURL,
		userInfoURL:  googleUserInfoURL,
	}
}

// ===============================
// EMAIL & PASSWORD
// ===============================

// Register creates an email account and signs the caller in
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, NewValidationError(msgRegisterRequired, nil)
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("Données d'inscription invalides", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashed := string(hash)

	user := &models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: &hashed,
		AuthProvider: models.AuthProviderEmail,
		Settings:     models.DefaultSettings(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, NewConflictError(msgEmailTaken, "EMAIL_TAKEN")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("provider", models.AuthProviderEmail),
	)
	s.events.Publish(ctx, events.NewUserRegisteredEvent(user.ID, models.AuthProviderEmail))

	return s.issue(ctx, user)
}

// Login checks email and password. Accounts without a password cannot log in this way.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, NewValidationError(msgLoginRequired, nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.HasPassword() {
		return nil, NewUnauthorizedError(msgBadCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug("Password mismatch", zap.Int64("user_id", user.ID))
		return nil, NewUnauthorizedError(msgBadCredentials)
	}

	return s.issue(ctx, user)
}

// ===============================
// GOOGLE
// ===============================

// GoogleAuthURL returns the consent page URL for the authorization-code flow
func (s *authService) GoogleAuthURL(state string) (string, error) {
	if s.oauth == nil {
		return "", NewServiceUnavailableError(msgGoogleUnavailable)
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// GoogleLogin finds or creates the account behind a Google identity
func (s *authService) GoogleLogin(ctx context.Context, req *GoogleLoginRequest) (*AuthResponse, error) {
	profile, err := s.resolveGoogleProfile(ctx, req)
	if err != nil {
		return nil, err
	}

	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if profile.Email == "" {
		return nil, NewValidationError(msgGoogleEmail, nil)
	}

	var avatar *string
	if profile.Picture != "" {
		avatar = &profile.Picture
	}

	user, err := s.findGoogleUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	if user == nil {
		name := strings.TrimSpace(profile.Name)
		if name == "" {
			name = models.NameFromEmail(profile.Email)
		}

		user = &models.User{
			Email:        profile.Email,
			Name:         name,
			Avatar:       avatar,
			AuthProvider: models.AuthProviderGoogle,
			Settings:     models.DefaultSettings(),
		}
		if profile.Sub != "" {
			user.GoogleID = &profile.Sub
		}

		if err := s.users.Create(ctx, user); err != nil {
			if !errors.Is(err, repositories.ErrDuplicateEmail) {
				return nil, fmt.Errorf("failed to create google user: %w", err)
			}
			// lost a race with a concurrent first login
			existing, getErr := s.users.GetByEmail(ctx, profile.Email)
			if getErr != nil || existing == nil {
				return nil, fmt.Errorf("failed to create google user: %w", err)
			}
			return s.issue(ctx, existing)
		}

		s.logger.Info("User registered",
			zap.Int64("user_id", user.ID),
			zap.String("provider", models.AuthProviderGoogle),
		)
		s.events.Publish(ctx, events.NewUserRegisteredEvent(user.ID, models.AuthProviderGoogle))
		return s.issue(ctx, user)
	}

	merged, err := s.users.MergeGoogleProfile(ctx, user.ID, profile.Sub, strings.TrimSpace(profile.Name), avatar)
	if err != nil {
		return nil, fmt.Errorf("failed to merge google profile: %w", err)
	}
	if merged != nil {
		user = merged
	}

	return s.issue(ctx, user)
}

func (s *authService) findGoogleUser(ctx context.Context, profile *googleProfile) (*models.User, error) {
	if profile.Sub != "" {
		user, err := s.users.GetByGoogleID(ctx, profile.Sub)
		if err != nil {
			return nil, fmt.Errorf("failed to load user by google id: %w", err)
		}
		if user != nil {
			return user, nil
		}
	}

	user, err := s.users.GetByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user by email: %w", err)
	}
	return user, nil
}

// resolveGoogleProfile prefers a verified identity. Outside production the
// client-supplied fields are accepted when verification is impossible or fails.
func (s *authService) resolveGoogleProfile(ctx context.Context, req *GoogleLoginRequest) (*googleProfile, error) {
	var verifyErr error

	switch {
	case req.Code != "":
		if s.oauth == nil {
			return nil, NewServiceUnavailableError(msgGoogleUnavailable)
		}
		profile, err := s.exchangeCode(ctx, req.Code)
		if err == nil {
			return profile, nil
		}
		verifyErr = err

	case len(req.IDToken) > 10 && s.cfg.GoogleClientID != "":
		profile, err := s.verifyIDToken(ctx, req.IDToken)
		if err == nil {
			return profile, nil
		}
		verifyErr = err
	}

	if verifyErr != nil {
		s.logger.Warn("Google verification failed", zap.Error(verifyErr))
	}

	if s.production {
		return nil, NewUnauthorizedError(msgGoogleInvalid)
	}

	return &googleProfile{
		Sub:     strings.TrimSpace(req.GoogleID),
		Email:   req.Email,
		Name:    req.Name,
		Picture: derefString(req.Avatar),
	}, nil
}

func (s *authService) exchangeCode(ctx context.Context, code string) (*googleProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	profile := &googleProfile{}
	if err := s.getJSON(ctx, s.oauth.Client(ctx, token), s.userInfoURL, profile); err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	return profile, nil
}

func (s *authService) verifyIDToken(ctx context.Context, idToken string) (*googleProfile, error) {
	endpoint := s.tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)

	profile := &googleProfile{}
	if err := s.getJSON(ctx, s.httpClient, endpoint, profile); err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}
	if profile.Audience != s.cfg.GoogleClientID {
		return nil, fmt.Errorf("id token audience mismatch: %q", profile.Audience)
	}
	return profile, nil
}

func (s *authService) getJSON(ctx context.Context, client *http.Client, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// ===============================
// HELPERS
// ===============================

func (s *authService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.build(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: profile}, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
