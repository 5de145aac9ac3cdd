package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/repos"
  "github.com/chirpchat/chirp-backend/internal/requestdata"
  "github.com/chirpchat/chirp-backend/internal/types"
)

type AuthService interface {
  Register(ctx context.Context, user *types.User) error
  Login(ctx context.Context, email, password string) (access string, refresh string, err error)
  Refresh(ctx context.Context, refreshToken string) (access string, refresh string, err error)
  Logout(ctx context.Context, userID uint) error
  ParseAccess(tokenString string) (*requestdata.RequestData, error)
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  userTokenRepo repos.UserTokenRepo
  jwtSecretKey  []byte
  accessTTL     time.Duration
  refreshTTL    time.Duration
}

type authClaims struct {
  UserID   uint   `json:"userId"`
  Username string `json:"username"`
  jwt.RegisteredClaims
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:            db,
    log:           serviceLog,
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    jwtSecretKey:  []byte(jwtSecretKey),
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) Register(ctx context.Context, user *types.User) error {
  user.Email = strings.ToLower(strings.TrimSpace(user.Email))
  user.Username = strings.TrimSpace(user.Username)
  user.Name = strings.TrimSpace(user.Name)

  if err := validate.Var(user.Email, "required,email"); err != nil {
    return apperr.Validation("a valid email is required")
  }
  if err := validate.Var(user.Username, "required,min=3,max=32,alphanum"); err != nil {
    return apperr.Validation("username must be 3-32 alphanumeric characters")
  }
  if len(user.Password) < 8 {
    return apperr.Validation("password must be at least 8 characters")
  }

  emailTaken, err := as.userRepo.EmailExists(ctx, nil, user.Email)
  if err != nil {
    return apperr.Upstream(fmt.Errorf("email lookup failed: %w", err))
  }
  if emailTaken {
    return apperr.Validation("email already registered")
  }
  usernameTaken, err := as.userRepo.UsernameExists(ctx, nil, user.Username)
  if err != nil {
    return apperr.Upstream(fmt.Errorf("username lookup failed: %w", err))
  }
  if usernameTaken {
    return apperr.Validation("username already taken")
  }

  hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
  if err != nil {
    return apperr.Upstream(fmt.Errorf("password hash failed: %w", err))
  }
  user.Password = string(hashed)

  if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
    return apperr.Upstream(fmt.Errorf("failed to create user: %w", err))
  }
  as.log.Info("Registered user", "user_id", user.ID, "username", user.Username)
  return nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))
  if email == "" || password == "" {
    return "", "", apperr.Validation("email and password are required")
  }

  users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if err != nil {
    return "", "", apperr.Upstream(fmt.Errorf("user lookup failed: %w", err))
  }
  if len(users) == 0 {
    return "", "", apperr.Unauthorized("invalid credentials")
  }
  user := users[0]
  if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
    return "", "", apperr.Unauthorized("invalid credentials")
  }

  return as.issueTokens(ctx, user)
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
  claims, err := as.parseClaims(refreshToken)
  if err != nil {
    return "", "", apperr.Unauthorized("invalid refresh token")
  }

  stored, err := as.userTokenRepo.GetByUserID(ctx, nil, claims.UserID)
  if err != nil {
    return "", "", apperr.Upstream(fmt.Errorf("token lookup failed: %w", err))
  }
  if stored == nil || stored.Token != refreshToken || stored.ExpiresAt.Before(time.Now()) {
    return "", "", apperr.Unauthorized("refresh token revoked or expired")
  }

  users, err := as.userRepo.GetByIDs(ctx, nil, []uint{claims.UserID})
  if err != nil {
    return "", "", apperr.Upstream(fmt.Errorf("user lookup failed: %w", err))
  }
  if len(users) == 0 {
    return "", "", apperr.Unauthorized("user no longer exists")
  }
  return as.issueTokens(ctx, users[0])
}

func (as *authService) Logout(ctx context.Context, userID uint) error {
  if err := as.userTokenRepo.DeleteByUserID(ctx, nil, userID); err != nil {
    return apperr.Upstream(fmt.Errorf("failed to delete token: %w", err))
  }
  return nil
}

func (as *authService) ParseAccess(tokenString string) (*requestdata.RequestData, error) {
  claims, err := as.parseClaims(tokenString)
  if err != nil {
    return nil, apperr.Unauthorized("invalid token")
  }
  return &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      claims.UserID,
    Username:    claims.Username,
  }, nil
}

func (as *authService) issueTokens(ctx context.Context, user *types.User) (string, string, error) {
  access, err := as.signToken(user, as.accessTTL)
  if err != nil {
    return "", "", apperr.Upstream(fmt.Errorf("failed to sign access token: %w", err))
  }
  refresh, err := as.signToken(user, as.refreshTTL)
  if err != nil {
    return "", "", apperr.Upstream(fmt.Errorf("failed to sign refresh token: %w", err))
  }
  row := &types.UserToken{
    UserID:    user.ID,
    Token:     refresh,
    ExpiresAt: time.Now().Add(as.refreshTTL),
  }
  if err := as.userTokenRepo.Upsert(ctx, nil, row); err != nil {
    return "", "", apperr.Upstream(fmt.Errorf("failed to store refresh token: %w", err))
  }
  return access, refresh, nil
}

func (as *authService) signToken(user *types.User, ttl time.Duration) (string, error) {
  now := time.Now()
  claims := authClaims{
    UserID:   user.ID,
    Username: user.Username,
    RegisteredClaims: jwt.RegisteredClaims{
      IssuedAt:  jwt.NewNumericDate(now),
      ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
    },
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString(as.jwtSecretKey)
}

func (as *authService) parseClaims(tokenString string) (*authClaims, error) {
  claims := &authClaims{}
  token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
    }
    return as.jwtSecretKey, nil
  })
  if err != nil || !token.Valid {
    return nil, fmt.Errorf("token parse failed: %w", err)
  }
  return claims, nil
}
