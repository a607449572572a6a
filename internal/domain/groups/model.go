package groups

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

type Group struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description *string   `gorm:"type:text"`
	CreatedBy   string    `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

type GroupMember struct {
	ID       string    `gorm:"type:uuid;primaryKey"`
	GroupID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_group_members_group_user"`
	UserID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_group_members_group_user"`
	Role     string    `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time `gorm:"autoCreateTime"`

	Group Group `gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:CASCADE"`
}

type MemberProfile struct {
	UserID    string
	Role      string
	JoinedAt  time.Time
	Email     *string
	FullName  *string
	AvatarURL *string
}

type GroupInvitation struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	GroupID       string    `gorm:"type:uuid;not null;index"`
	InvitedBy     string    `gorm:"type:uuid;not null"`
	InvitedEmail  *string   `gorm:"type:text"`
	InvitedUserID *string   `gorm:"type:uuid"`
	Status        string    `gorm:"type:varchar(16);not null;default:pending"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	ExpiresAt     time.Time `gorm:"not null"`
}

// Expired reports whether the invitation can no longer be used, whatever its
// stored status says.
func (i GroupInvitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

type UpdateGroupInput struct {
	Name        *string
	Description *string
}
