package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/app/repositories"
	"gorm.io/gorm"
)

// AdminDirectory resolves the admin accounts that receive alerts and
// reports. Admins are identified by the configured email addresses.
type AdminDirectory struct {
	users  *repositories.UserRepository
	emails []string
}

func NewAdminDirectory(db *gorm.DB, emails []string) *AdminDirectory {
	return &AdminDirectory{users: repositories.NewUserRepository(db), emails: emails}
}

// Emails returns the configured admin addresses.
func (d *AdminDirectory) Emails() []string { return d.emails }

// Admins returns the existing admin users. ErrAdminMissing means none of
// the configured addresses belongs to a user.
func (d *AdminDirectory) Admins(ctx context.Context) ([]models.User, error) {
	users, err := d.users.FindByEmails(ctx, d.emails)
	if err != nil {
		return nil, fmt.Errorf("admins: lookup: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrAdminMissing
	}
	return users, nil
}
