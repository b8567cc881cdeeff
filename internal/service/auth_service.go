package service

import (
	"context"
	"strconv"

	"github.com/TianUrien/playr-chat/internal/config"
	"github.com/TianUrien/playr-chat/internal/entity"
	"github.com/TianUrien/playr-chat/internal/repository"
	"github.com/TianUrien/playr-chat/pkg/constant"
	"github.com/TianUrien/playr-chat/pkg/errcode"
	"github.com/TianUrien/playr-chat/pkg/idgen"
	"github.com/TianUrien/playr-chat/pkg/identity"
	"github.com/TianUrien/playr-chat/pkg/jwt"
	"github.com/mbeoliero/kit/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// SessionKicker force-disconnects a user's change feed connections. The
// gateway implements it; revoking a token must also drop its live feed.
type SessionKicker interface {
	DisconnectUser(userId string, platformId int)
}

// AuthService handles authentication logic
type AuthService struct {
	userRepo   *repository.UserRepo
	cfg        *config.Config
	tokenStore *jwt.TokenStore
	kicker     SessionKicker
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo *repository.UserRepo, cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		cfg:        cfg,
		tokenStore: jwt.NewTokenStore(rdb, cfg.JWT.ExpireHours),
	}
}

// SetKicker wires the gateway's session kicker
func (s *AuthService) SetKicker(kicker SessionKicker) {
	s.kicker = kicker
}

// RegisterRequest represents user registration request. UserId is optional;
// when empty, a chat user id is minted from a generated member id and Role.
type RegisterRequest struct {
	UserId   string `json:"user_id,omitempty"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// LoginRequest represents user login request
type LoginRequest struct {
	UserId     string `json:"user_id"`
	Password   string `json:"password"`
	PlatformId int    `json:"platform_id"`
}

// LoginResponse represents user login response
type LoginResponse struct {
	Token    string           `json:"token"`
	UserInfo *entity.UserInfo `json:"user_info"`
}

// Register registers a new user
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*entity.UserInfo, error) {
	if !constant.ValidRole(req.Role) {
		return nil, errcode.ErrInvalidParam
	}
	if req.Name == "" || req.Password == "" {
		return nil, errcode.ErrInvalidParam
	}

	userId := req.UserId
	if userId == "" {
		id, err := s.mintUserId(req.Role)
		if err != nil {
			log.CtxError(ctx, "mint user id failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
		userId = id
	}

	exists, err := s.userRepo.Exists(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "check user exists failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if exists {
		return nil, errcode.ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.CtxError(ctx, "hash password failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	user := &entity.User{
		Id:       userId,
		Role:     req.Role,
		Name:     req.Name,
		Avatar:   req.Avatar,
		Bio:      req.Bio,
		Password: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		log.CtxError(ctx, "create user failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "user registered: user_id=%s, role=%s", userId, req.Role)
	return user.ToUserInfo(), nil
}

// mintUserId issues a fresh chat user id for a role.
func (s *AuthService) mintUserId(role string) (string, error) {
	raw, err := idgen.NextID()
	if err != nil {
		return "", err
	}
	memberId, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", err
	}
	member := identity.Member{Id: memberId, Role: identity.Role(role)}
	return member.ToChatUserId()
}

// Login authenticates a user and returns a token
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.GetById(ctx, req.UserId)
	if err != nil {
		log.CtxDebug(ctx, "user not found: user_id=%s, error=%v", req.UserId, err)
		return nil, errcode.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errcode.ErrPasswordWrong
	}

	token, err := jwt.GenerateToken(user.Id, req.PlatformId, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		log.CtxError(ctx, "generate token failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	if err := s.tokenStore.StoreToken(ctx, user.Id, req.PlatformId, token); err != nil {
		log.CtxError(ctx, "store token failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "user logged in: user_id=%s, platform_id=%d", user.Id, req.PlatformId)
	return &LoginResponse{
		Token:    token,
		UserInfo: user.ToUserInfo(),
	}, nil
}

// ValidateToken validates a token and returns claims
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := jwt.ParseToken(token, s.cfg.JWT.Secret)
	if err != nil {
		return nil, err
	}

	status, err := s.tokenStore.ValidateTokenStatus(ctx, claims.UserId, claims.PlatformId, token)
	if err != nil {
		log.CtxWarn(ctx, "check token status failed: %v", err)
		// Fall back to JWT validation only if Redis check fails
		return claims, nil
	}
	if status != 0 && status != jwt.TokenStatusNormal {
		return nil, errcode.ErrTokenInvalid
	}

	return claims, nil
}

// Logout revokes the user's tokens on a platform and drops their live feed
// connections
func (s *AuthService) Logout(ctx context.Context, userId string, platformId int) error {
	if err := s.tokenStore.RevokeTokens(ctx, userId, platformId); err != nil {
		log.CtxError(ctx, "revoke tokens failed: %v", err)
		return errcode.ErrInternalServer
	}

	if s.kicker != nil {
		s.kicker.DisconnectUser(userId, platformId)
	}

	log.CtxInfo(ctx, "user logged out: user_id=%s, platform_id=%d", userId, platformId)
	return nil
}
