package util

import (
	"edu_dashboard_client/internal/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID string         `json:"user_id"`
	ID     string         `json:"_id"`
	Role   model.UserRole `json:"role"`
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	jwt.RegisteredClaims
}

// DecodeClaims 不校验签名地解出token声明。
// 客户端没有服务端密钥，只用声明恢复身份展示信息，真正的校验
// 留给下一次带凭证的请求。
func DecodeClaims(tokenString string) (*Claims, error) {
	parser := jwt.NewParser()
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ClaimsUser 由声明拼出身份对象，字段不全时尽量填充
func ClaimsUser(c *Claims) *model.User {
	id := c.ID
	if id == "" {
		id = c.UserID
	}
	if id == "" {
		id = c.Subject
	}
	return &model.User{
		ID:    id,
		Name:  c.Name,
		Email: c.Email,
		Role:  model.ParseRole(string(c.Role)),
	}
}

// Expired 声明携带过期时间且已过期时返回true；无过期时间视为未过期
func Expired(c *Claims, now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Time.Before(now)
}
