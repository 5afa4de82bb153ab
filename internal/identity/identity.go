// Package identity resolves the signed-in user's email for the invoice services.
package identity

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/invoice-desk/auth"
	"github.com/diewo77/invoice-desk/internal/models"
)

// SessionProvider maps the user id placed in the context by auth.Middleware to
// the user's email.
type SessionProvider struct {
	db *gorm.DB
}

func NewSessionProvider(db *gorm.DB) *SessionProvider {
	return &SessionProvider{db: db}
}

// CurrentUserEmail returns the lower-cased email of the signed-in user.
func (p *SessionProvider) CurrentUserEmail(ctx context.Context) (string, bool) {
	uid, ok := auth.UserIDFromContext(ctx)
	if !ok || uid == 0 {
		return "", false
	}
	var user models.User
	if err := p.db.WithContext(ctx).Select("id", "email").First(&user, uid).Error; err != nil {
		return "", false
	}
	return strings.ToLower(user.Email), true
}

// UserExists is suitable for auth.SetUserVerifier.
func (p *SessionProvider) UserExists(ctx context.Context, uid uint) bool {
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// Static always reports the same email; an empty value means nobody is signed in.
type Static string

func (s Static) CurrentUserEmail(context.Context) (string, bool) {
	if s == "" {
		return "", false
	}
	return strings.ToLower(string(s)), true
}
