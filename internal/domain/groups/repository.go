package groups

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateGroup(ctx context.Context, group *Group) error
	GetGroup(ctx context.Context, groupID string) (*Group, error)
	ListGroupsByUser(ctx context.Context, userID string) ([]Group, error)
	UpdateGroup(ctx context.Context, groupID string, input UpdateGroupInput) error
	DeleteGroup(ctx context.Context, groupID string) error

	AddMember(ctx context.Context, member *GroupMember) error
	GetMember(ctx context.Context, groupID, userID string) (*GroupMember, error)
	ListMembers(ctx context.Context, groupID string) ([]GroupMember, error)
	ListMembersWithProfiles(ctx context.Context, groupID string) ([]MemberProfile, error)
	DeleteMember(ctx context.Context, groupID, userID string) error
	DeleteMembersByGroup(ctx context.Context, groupID string) error

	CreateInvitation(ctx context.Context, invitation *GroupInvitation) error
	GetInvitation(ctx context.Context, invitationID string) (*GroupInvitation, error)
	ListInvitationsByGroup(ctx context.Context, groupID string) ([]GroupInvitation, error)
	ListPendingInvitationsByEmail(ctx context.Context, email string, now time.Time) ([]GroupInvitation, error)
	HasPendingInvitation(ctx context.Context, groupID, email string, now time.Time) (bool, error)
	// AnswerInvitation moves a pending invitation to status. It reports false
	// when the row was no longer pending.
	AnswerInvitation(ctx context.Context, invitationID, status, userID string) (bool, error)
	DeleteInvitationsByGroup(ctx context.Context, groupID string) error
}
