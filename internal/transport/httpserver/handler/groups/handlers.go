package groups

import (
	"context"

	groupsdomain "finance-app-go/internal/domain/groups"
	"finance-app-go/pkg/logger"
)

type Service interface {
	CreateGroup(ctx context.Context, userID, name string, description *string) (*groupsdomain.Group, error)
	ListGroups(ctx context.Context, userID string) ([]groupsdomain.Group, error)
	GetGroup(ctx context.Context, userID, groupID string) (*groupsdomain.Group, error)
	UpdateGroup(ctx context.Context, userID, groupID string, input groupsdomain.UpdateGroupInput) (*groupsdomain.Group, error)
	DeleteGroup(ctx context.Context, userID, groupID string) error
	ListMembers(ctx context.Context, userID, groupID string) ([]groupsdomain.MemberProfile, error)
	RemoveMember(ctx context.Context, actorID, groupID, memberID string) error
	LeaveGroup(ctx context.Context, userID, groupID string) error
	CreateInvitation(ctx context.Context, actorID, groupID, email string) (*groupsdomain.GroupInvitation, error)
	AcceptInvitation(ctx context.Context, userID, email, invitationID string) (*groupsdomain.GroupInvitation, error)
	DeclineInvitation(ctx context.Context, userID, email, invitationID string) (*groupsdomain.GroupInvitation, error)
	ListGroupInvitations(ctx context.Context, actorID, groupID string) ([]groupsdomain.GroupInvitation, error)
	ListMyInvitations(ctx context.Context, email string) ([]groupsdomain.GroupInvitation, error)
}

type Handlers struct {
	Groups Service
	log    logger.Logger
}

func New(groups Service, log logger.Logger) *Handlers {
	return &Handlers{
		Groups: groups,
		log:    log,
	}
}
