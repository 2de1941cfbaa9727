package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is one refresh-token lineage. RefreshID is the jti of the refresh
// token currently allowed to rotate it.
type Session struct {
	ID        SessionID  `gorm:"type:uuid;primaryKey" db:"id"`
	UserID    UserID     `gorm:"type:uuid;not null;index" db:"user_id"`
	User      *User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	RefreshID uuid.UUID  `gorm:"type:uuid;uniqueIndex:ux_sessions_refreshid" db:"refresh_id"`
	ExpiresAt time.Time  `gorm:"not null" db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `gorm:"not null" db:"created_at"`
	IP        string     `gorm:"type:varchar(45)" db:"ip"`
	UserAgent string     `gorm:"type:text" db:"user_agent"`
}

func (Session) TableName() string { return "sessions" }

// BlacklistedToken records a refresh jti that may never be used again.
type BlacklistedToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" db:"id"`
	JTI       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_blacklist_jti" db:"jti"`
	UserID    UserID    `gorm:"type:uuid;not null;index" db:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"not null" db:"expires_at"`
	CreatedAt time.Time `gorm:"not null" db:"created_at"`
}

func (BlacklistedToken) TableName() string { return "blacklisted_tokens" }
