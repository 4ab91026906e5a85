// Package service 实现业务逻辑层，协调各种资源完成业务需求。
package service

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

// 令牌相关错误定义
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenNotReady = errors.New("token used before valid")
)

// IdentityClaims 外部身份提供方签发的令牌载荷
// sub 为用户ID
type IdentityClaims struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier 校验会话令牌并还原当前用户
type TokenVerifier interface {
	Verify(tokenString string) (*domain.Principal, error)
}

// tokenVerifier 是 TokenVerifier 接口的 HS256 实现
type tokenVerifier struct {
	secret []byte
	issuer string
	logger *zap.Logger
}

// NewTokenVerifier 创建令牌校验器，issuer 为空时不校验签发方
func NewTokenVerifier(secret, issuer string, logger *zap.Logger) TokenVerifier {
	return &tokenVerifier{
		secret: []byte(secret),
		issuer: issuer,
		logger: logger,
	}
}

// Verify 验证令牌
func (v *tokenVerifier) Verify(tokenString string) (*domain.Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotReady
		}
		v.logger.Debug("token validation failed", zap.Error(err))
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	role := claims.Role
	if role != domain.RoleAdmin {
		role = domain.RoleCustomer
	}
	return &domain.Principal{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  role,
	}, nil
}
