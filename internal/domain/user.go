package domain

import "time"

// User is the authenticable identity. Email is the login credential; Username
// and FullName are derived from the email local part when left blank.
type User struct {
	ID          UserID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Email       string    `gorm:"type:varchar(254);not null;uniqueIndex:ux_users_email" db:"email" json:"email"`
	Username    string    `gorm:"type:varchar(100);not null;uniqueIndex:ux_users_username" db:"username" json:"username"`
	FullName    string    `gorm:"type:varchar(100);not null;uniqueIndex:ux_users_full_name" db:"full_name" json:"fullName"`
	OneTimeCode *string   `gorm:"column:otp;type:varchar(100);uniqueIndex:ux_users_otp" db:"otp" json:"otp,omitempty"`
	IsDisabled  bool      `gorm:"not null;default:false" db:"is_disabled" json:"isDisabled"`
	CreatedAt   time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// Authenticatable is the part of an identity the login flow needs.
type Authenticatable interface {
	GetID() UserID
	GetEmail() string
	Disabled() bool
}

// Profileable is anything that owns a profile and seeds its derived fields.
type Profileable interface {
	GetID() UserID
	GetFullName() string
}

func (u *User) GetID() UserID       { return u.ID }
func (u *User) GetEmail() string    { return u.Email }
func (u *User) GetFullName() string { return u.FullName }
func (u *User) Disabled() bool      { return u.IsDisabled }

var (
	_ Authenticatable = (*User)(nil)
	_ Profileable     = (*User)(nil)
)
