package groups

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultInvitationTTL = 7 * 24 * time.Hour

type Service struct {
	repo          Repository
	invitationTTL time.Duration
	now           func() time.Time
}

func NewService(repo Repository, invitationTTL time.Duration) *Service {
	if invitationTTL <= 0 {
		invitationTTL = defaultInvitationTTL
	}
	return &Service{
		repo:          repo,
		invitationTTL: invitationTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateGroup(ctx context.Context, userID, name string, description *string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	group := Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: trimOptional(description),
		CreatedBy:   userID,
	}
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateGroup(ctx, &group); err != nil {
			return err
		}
		return tx.AddMember(ctx, &GroupMember{
			ID:      uuid.NewString(),
			GroupID: group.ID,
			UserID:  userID,
			Role:    RoleAdmin,
		})
	})
	if err != nil {
		return nil, err
	}

	return &group, nil
}

func (s *Service) ListGroups(ctx context.Context, userID string) ([]Group, error) {
	return s.repo.ListGroupsByUser(ctx, userID)
}

func (s *Service) GetGroup(ctx context.Context, userID, groupID string) (*Group, error) {
	group, _, err := requireMember(ctx, s.repo, groupID, userID)
	return group, err
}

func (s *Service) UpdateGroup(ctx context.Context, userID, groupID string, input UpdateGroupInput) (*Group, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		input.Name = &name
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		input.Description = &description
	}

	group, member, err := requireMember(ctx, s.repo, groupID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != RoleAdmin {
		return nil, ErrNotAdmin
	}
	if input.Name == nil && input.Description == nil {
		return group, nil
	}

	if err := s.repo.UpdateGroup(ctx, groupID, input); err != nil {
		return nil, err
	}
	if input.Name != nil {
		group.Name = *input.Name
	}
	if input.Description != nil {
		group.Description = input.Description
	}
	return group, nil
}

func (s *Service) DeleteGroup(ctx context.Context, userID, groupID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if group.CreatedBy != userID {
			return ErrNotCreator
		}

		if err := tx.DeleteInvitationsByGroup(ctx, groupID); err != nil {
			return err
		}
		if err := tx.DeleteMembersByGroup(ctx, groupID); err != nil {
			return err
		}
		return tx.DeleteGroup(ctx, groupID)
	})
}

func (s *Service) ListMembers(ctx context.Context, userID, groupID string) ([]MemberProfile, error) {
	if _, _, err := requireMember(ctx, s.repo, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMembersWithProfiles(ctx, groupID)
}

func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, memberID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		group, actor, err := requireMember(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}
		if actor.Role != RoleAdmin {
			return ErrNotAdmin
		}
		if memberID == group.CreatedBy {
			return ErrCannotRemoveCreator
		}
		if _, err := tx.GetMember(ctx, groupID, memberID); err != nil {
			return err
		}
		return tx.DeleteMember(ctx, groupID, memberID)
	})
}

func (s *Service) LeaveGroup(ctx context.Context, userID, groupID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		group, _, err := requireMember(ctx, tx, groupID, userID)
		if err != nil {
			return err
		}
		if group.CreatedBy == userID {
			return ErrCreatorCannotLeave
		}
		return tx.DeleteMember(ctx, groupID, userID)
	})
}

// CreateInvitation lets any member invite someone. An empty email produces an
// open invitation that anyone holding its id can answer.
func (s *Service) CreateInvitation(ctx context.Context, actorID, groupID, email string) (*GroupInvitation, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	invitation := GroupInvitation{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		InvitedBy: actorID,
		Status:    InvitationPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.invitationTTL),
	}
	if normalized != "" {
		invitation.InvitedEmail = &normalized
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if _, _, err := requireMember(ctx, tx, groupID, actorID); err != nil {
			return err
		}
		if normalized != "" {
			exists, err := tx.HasPendingInvitation(ctx, groupID, normalized, now)
			if err != nil {
				return err
			}
			if exists {
				return ErrInvitationExists
			}
		}
		return tx.CreateInvitation(ctx, &invitation)
	})
	if err != nil {
		return nil, err
	}

	return &invitation, nil
}

// AcceptInvitation joins the group named by a pending, unexpired invitation.
// The membership insert and the status change commit together.
func (s *Service) AcceptInvitation(ctx context.Context, userID, email, invitationID string) (*GroupInvitation, error) {
	var result GroupInvitation
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		invitation, err := s.answerable(ctx, tx, invitationID, email)
		if err != nil {
			return err
		}

		if _, err := tx.GetMember(ctx, invitation.GroupID, userID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, ErrMemberNotFound) {
			return err
		}

		ok, err := tx.AnswerInvitation(ctx, invitation.ID, InvitationAccepted, userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvitationNotPending
		}

		if err := tx.AddMember(ctx, &GroupMember{
			ID:      uuid.NewString(),
			GroupID: invitation.GroupID,
			UserID:  userID,
			Role:    RoleMember,
		}); err != nil {
			return err
		}

		invitation.Status = InvitationAccepted
		invitation.InvitedUserID = &userID
		result = *invitation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) DeclineInvitation(ctx context.Context, userID, email, invitationID string) (*GroupInvitation, error) {
	var result GroupInvitation
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		invitation, err := s.answerable(ctx, tx, invitationID, email)
		if err != nil {
			return err
		}

		ok, err := tx.AnswerInvitation(ctx, invitation.ID, InvitationDeclined, userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvitationNotPending
		}

		invitation.Status = InvitationDeclined
		invitation.InvitedUserID = &userID
		result = *invitation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) ListGroupInvitations(ctx context.Context, actorID, groupID string) ([]GroupInvitation, error) {
	if _, _, err := requireMember(ctx, s.repo, groupID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListInvitationsByGroup(ctx, groupID)
}

// ListMyInvitations returns pending, unexpired invitations addressed to email.
func (s *Service) ListMyInvitations(ctx context.Context, email string) ([]GroupInvitation, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if normalized == "" {
		return []GroupInvitation{}, nil
	}
	return s.repo.ListPendingInvitationsByEmail(ctx, normalized, s.now())
}

func (s *Service) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	_, err := s.repo.GetMember(ctx, groupID, userID)
	if errors.Is(err, ErrMemberNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}
	return ids, nil
}

func (s *Service) answerable(ctx context.Context, tx Repository, invitationID, email string) (*GroupInvitation, error) {
	invitation, err := tx.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if invitation.Status != InvitationPending {
		return nil, ErrInvitationNotPending
	}
	if invitation.Expired(s.now()) {
		return nil, ErrInvitationExpired
	}
	if invitation.InvitedEmail != nil && !strings.EqualFold(*invitation.InvitedEmail, strings.TrimSpace(email)) {
		return nil, ErrInvitationMismatch
	}
	return invitation, nil
}

func requireMember(ctx context.Context, repo Repository, groupID, userID string) (*Group, *GroupMember, error) {
	group, err := repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	member, err := repo.GetMember(ctx, groupID, userID)
	if errors.Is(err, ErrMemberNotFound) {
		return nil, nil, ErrNotMember
	}
	if err != nil {
		return nil, nil, err
	}
	return group, member, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
