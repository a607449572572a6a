package groups

import (
	"context"
	"errors"
	"time"

	groupsdomain "finance-app-go/internal/domain/groups"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(groupsdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateGroup(ctx context.Context, group *groupsdomain.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *PostgresRepository) GetGroup(ctx context.Context, groupID string) (*groupsdomain.Group, error) {
	var group groupsdomain.Group
	if err := r.db.WithContext(ctx).Where("id = ?", groupID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, groupsdomain.ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *PostgresRepository) ListGroupsByUser(ctx context.Context, userID string) ([]groupsdomain.Group, error) {
	var groups []groupsdomain.Group
	if err := r.db.WithContext(ctx).
		Table("groups").
		Joins("join group_members on group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.created_at desc").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *PostgresRepository) UpdateGroup(ctx context.Context, groupID string, input groupsdomain.UpdateGroupInput) error {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}

	result := r.db.WithContext(ctx).Model(&groupsdomain.Group{}).Where("id = ?", groupID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return groupsdomain.ErrGroupNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteGroup(ctx context.Context, groupID string) error {
	return r.db.WithContext(ctx).Delete(&groupsdomain.Group{}, "id = ?", groupID).Error
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *groupsdomain.GroupMember) error {
	return r.db.WithContext(ctx).Omit("Group").Create(member).Error
}

func (r *PostgresRepository) GetMember(ctx context.Context, groupID, userID string) (*groupsdomain.GroupMember, error) {
	var member groupsdomain.GroupMember
	if err := r.db.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, groupsdomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, groupID string) ([]groupsdomain.GroupMember, error) {
	var members []groupsdomain.GroupMember
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) ListMembersWithProfiles(ctx context.Context, groupID string) ([]groupsdomain.MemberProfile, error) {
	type memberRow struct {
		UserID    string    `gorm:"column:user_id"`
		Role      string    `gorm:"column:role"`
		JoinedAt  time.Time `gorm:"column:joined_at"`
		Email     *string   `gorm:"column:email"`
		FullName  *string   `gorm:"column:full_name"`
		AvatarURL *string   `gorm:"column:avatar_url"`
	}

	var rows []memberRow
	if err := r.db.WithContext(ctx).
		Table("group_members").
		Select("group_members.user_id, group_members.role, group_members.joined_at, profiles.email, profiles.full_name, profiles.avatar_url").
		Joins("left join profiles on profiles.user_id = group_members.user_id").
		Where("group_members.group_id = ?", groupID).
		Order("group_members.joined_at asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	members := make([]groupsdomain.MemberProfile, 0, len(rows))
	for _, row := range rows {
		members = append(members, groupsdomain.MemberProfile{
			UserID:    row.UserID,
			Role:      row.Role,
			JoinedAt:  row.JoinedAt,
			Email:     row.Email,
			FullName:  row.FullName,
			AvatarURL: row.AvatarURL,
		})
	}
	return members, nil
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).Delete(&groupsdomain.GroupMember{}, "group_id = ? AND user_id = ?", groupID, userID).Error
}

func (r *PostgresRepository) DeleteMembersByGroup(ctx context.Context, groupID string) error {
	return r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&groupsdomain.GroupMember{}).Error
}

func (r *PostgresRepository) CreateInvitation(ctx context.Context, invitation *groupsdomain.GroupInvitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *PostgresRepository) GetInvitation(ctx context.Context, invitationID string) (*groupsdomain.GroupInvitation, error) {
	var invitation groupsdomain.GroupInvitation
	if err := r.db.WithContext(ctx).Where("id = ?", invitationID).First(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, groupsdomain.ErrInvitationNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *PostgresRepository) ListInvitationsByGroup(ctx context.Context, groupID string) ([]groupsdomain.GroupInvitation, error) {
	var invitations []groupsdomain.GroupInvitation
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at desc").
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *PostgresRepository) ListPendingInvitationsByEmail(ctx context.Context, email string, now time.Time) ([]groupsdomain.GroupInvitation, error) {
	var invitations []groupsdomain.GroupInvitation
	if err := r.db.WithContext(ctx).
		Where("lower(invited_email) = ? AND status = ? AND expires_at >= ?", email, groupsdomain.InvitationPending, now).
		Order("created_at desc").
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *PostgresRepository) HasPendingInvitation(ctx context.Context, groupID, email string, now time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&groupsdomain.GroupInvitation{}).
		Where("group_id = ? AND lower(invited_email) = ? AND status = ? AND expires_at >= ?", groupID, email, groupsdomain.InvitationPending, now).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) AnswerInvitation(ctx context.Context, invitationID, status, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&groupsdomain.GroupInvitation{}).
		Where("id = ? AND status = ?", invitationID, groupsdomain.InvitationPending).
		Updates(map[string]interface{}{
			"status":          status,
			"invited_user_id": userID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PostgresRepository) DeleteInvitationsByGroup(ctx context.Context, groupID string) error {
	return r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&groupsdomain.GroupInvitation{}).Error
}
