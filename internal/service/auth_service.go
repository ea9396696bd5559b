package service

import (
	"strings"
	"time"

	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

// TenantAuthService 租户令牌服务（令牌由上游签发，本服务负责校验）
type TenantAuthService struct {
	cfg config.JWTConfig
}

// NewTenantAuthService 创建租户令牌服务
func NewTenantAuthService(cfg config.JWTConfig) *TenantAuthService {
	return &TenantAuthService{cfg: cfg}
}

// TenantClaims 租户 JWT 声明
type TenantClaims struct {
	OrganizerID uint   `json:"organizer_id"`
	MemberID    uint   `json:"member_id"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateJWT 签发租户令牌，用于本地联调与测试
func (s *TenantAuthService) GenerateJWT(organizerID, memberID uint, role string) (string, time.Time, error) {
	hours := s.cfg.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := TenantClaims{
		OrganizerID: organizerID,
		MemberID:    memberID,
		Role:        strings.ToLower(strings.TrimSpace(role)),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析并校验租户令牌
func (s *TenantAuthService) ParseJWT(tokenString string) (*TenantClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer := strings.TrimSpace(s.cfg.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenString, &TenantClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, ErrTenantTokenInvalid
	}

	claims, ok := token.Claims.(*TenantClaims)
	if !ok || !token.Valid || claims.OrganizerID == 0 || !isTenantRole(claims.Role) {
		return nil, ErrTenantTokenInvalid
	}
	return claims, nil
}

func isTenantRole(role string) bool {
	switch role {
	case constants.MemberRoleOwner, constants.MemberRoleFinance, constants.MemberRoleStaff:
		return true
	default:
		return false
	}
}
