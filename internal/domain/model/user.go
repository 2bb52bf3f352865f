package model

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleCustomer UserRole = "Customer"
	UserRoleManager  UserRole = "Manager"
	UserRoleAdmin    UserRole = "Admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "Active"
	UserStatusInactive  UserStatus = "Inactive"
	UserStatusSuspended UserStatus = "Suspended"
)

type User struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserNumber int        `gorm:"not null;default:nextval('users_user_number_seq');uniqueIndex" json:"user_number"`
	Username   string     `gorm:"not null;type:varchar(50);uniqueIndex" json:"username"`
	Email      string     `gorm:"not null;type:varchar(100);uniqueIndex" json:"email"`
	Phone      string     `gorm:"type:varchar(20)" json:"phone"`
	Role       UserRole   `gorm:"not null;type:varchar(16)" json:"role"`
	Status     UserStatus `gorm:"not null;type:varchar(16)" json:"status"`
	BaseModel
}

func (User) TableName() string {
	return "users"
}

var userRules = []Rule[User]{
	{Field: "username", Message: "username must be between 3 and 50 characters", Check: func(u User) bool {
		n := len(strings.TrimSpace(u.Username))
		return n >= 3 && n <= 50
	}},
	{Field: "email", Message: "email is not valid", Check: func(u User) bool {
		_, err := mail.ParseAddress(u.Email)
		return err == nil
	}},
	{Field: "role", Message: "role is not valid", Check: func(u User) bool {
		switch u.Role {
		case UserRoleCustomer, UserRoleManager, UserRoleAdmin:
			return true
		}
		return false
	}},
}

func NewUser(username, email, phone string, role UserRole) (*User, error) {
	u := User{
		ID:       uuid.NewString(),
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Phone:    phone,
		Role:     role,
		Status:   UserStatusActive,
	}
	if err := ToError(Validate(u, userRules)); err != nil {
		return nil, err
	}
	return &u, nil
}

// CanOwnCart 只有啟用中的顧客可以建立購物車
func (u *User) CanOwnCart() bool {
	return u.Role == UserRoleCustomer && u.Status == UserStatusActive
}
