package service

import (
	"strings"
	"time"

	"github.com/redactor-pro/license-api/internal/constants"
	"github.com/redactor-pro/license-api/internal/models"
	"github.com/redactor-pro/license-api/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// LicenseTokenService 许可令牌服务
//
// 令牌不设过期时间，许可有效性以数据库中的绑定状态为准：
// 设备改绑后旧令牌签名依旧合法，但授权校验会判定为已撤销。
type LicenseTokenService struct {
	secret []byte
	repo   repository.RedeemCodeRepository
}

// LicenseClaims 许可令牌声明（sub 为兑换码）
type LicenseClaims struct {
	DeviceID string `json:"device_id"`
	Plan     string `json:"plan"`
	jwt.RegisteredClaims
}

// NewLicenseTokenService 创建许可令牌服务
func NewLicenseTokenService(secret string, repo repository.RedeemCodeRepository) *LicenseTokenService {
	return &LicenseTokenService{
		secret: []byte(secret),
		repo:   repo,
	}
}

// IssueToken 为当前绑定状态签发许可令牌
func (s *LicenseTokenService) IssueToken(record *models.RedeemCode) (string, error) {
	if s == nil || record == nil {
		return "", ErrLicenseTokenInvalid
	}

	claims := LicenseClaims{
		DeviceID: record.BoundDevice(),
		Plan:     record.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  record.Code,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", ErrLicenseTokenInvalid
	}
	return tokenString, nil
}

// ParseToken 解析并校验许可令牌签名
func (s *LicenseTokenService) ParseToken(tokenString string) (*LicenseClaims, error) {
	if s == nil || strings.TrimSpace(tokenString) == "" {
		return nil, ErrLicenseTokenInvalid
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &LicenseClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrLicenseTokenInvalid
	}
	claims, ok := token.Claims.(*LicenseClaims)
	if !ok || !token.Valid {
		return nil, ErrLicenseTokenInvalid
	}
	return claims, nil
}

// VerifyAuthorization 校验令牌对应的授权是否仍然有效
//
// 签名非法 → ErrLicenseTokenInvalid；签名合法但兑换码已删除、
// 不存在或设备已改绑 → ErrLicenseRevoked。
func (s *LicenseTokenService) VerifyAuthorization(tokenString string) (*LicenseClaims, *models.RedeemCode, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, nil, err
	}
	if s.repo == nil {
		return nil, nil, ErrLicenseTokenInvalid
	}

	record, err := s.repo.GetByCode(claims.Subject)
	if err != nil {
		return nil, nil, ErrRedeemCodeFetchFailed
	}
	if record == nil || record.Status == constants.RedeemCodeStatusDeleted {
		return nil, nil, ErrLicenseRevoked
	}
	if record.BoundDevice() == "" || record.BoundDevice() != claims.DeviceID {
		return nil, nil, ErrLicenseRevoked
	}
	return claims, record, nil
}
