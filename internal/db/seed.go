package db

import (
	"context"                        // Request scoping
	"errors"                         // Error inspection
	"lottery_system/internal/domain" // Importing domain models
	"strings"                        // String manipulation

	"golang.org/x/crypto/bcrypt" // Password hash check
	"gorm.io/gorm"               // GORM ORM library
)

// ErrAdminPasswordHash is returned when a new admin account has no usable bcrypt hash
var ErrAdminPasswordHash = errors.New("admin password hash must be a bcrypt hash")

// SeedAdmin gives username the admin role. An existing account is promoted
// and keeps its password unless passwordHash is set; a missing account is
// created with passwordHash.
func SeedAdmin(ctx context.Context, db *gorm.DB, username, passwordHash string) (*domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username)) // Usernames are stored lowercase
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, ErrAdminPasswordHash
		}
	}
	var user domain.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("username = ?", username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if passwordHash == "" {
				return ErrAdminPasswordHash
			}
			user = domain.User{Username: username, Password: passwordHash, Role: domain.RoleAdmin}
			return tx.Create(&user).Error // New admin account
		}
		if err != nil {
			return err
		}
		updates := map[string]any{"role": domain.RoleAdmin}
		if passwordHash != "" {
			updates["password"] = passwordHash // Rotate the password
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		user.Role = domain.RoleAdmin
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
