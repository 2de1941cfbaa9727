package domain

import "time"

const DefaultAvatar = "default-user.png"

type Profile struct {
	ID          ProfileID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	UserID      UserID    `gorm:"type:uuid;not null;uniqueIndex:ux_profiles_user" db:"user_id" json:"userId"`
	User        *User     `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	DisplayName string    `gorm:"type:varchar(100);not null" db:"display_name" json:"displayName"`
	Avatar      string    `gorm:"type:text;not null" db:"avatar" json:"avatar"`
	Country     *string   `gorm:"type:varchar(100)" db:"country" json:"country,omitempty"`
	Bio         *string   `gorm:"type:text" db:"bio" json:"bio,omitempty"`
	CreatedAt   time.Time `gorm:"not null;<-:create" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Profile) TableName() string { return "profiles" }

// Label is what admin-style listings show: the display name, or the owner's
// full name while the profile has none.
func (p *Profile) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.User != nil {
		return p.User.FullName
	}
	return ""
}
