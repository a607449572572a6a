package user

import (
	"context"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpsertProfile records what the identity provider told us about the user.
// Empty values never overwrite stored ones.
func (s *Service) UpsertProfile(ctx context.Context, userID, email, fullName, avatarURL string) error {
	if userID == "" {
		return ErrUserIDRequired
	}

	profile := Profile{UserID: userID}
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		profile.Email = &email
	}
	if fullName = strings.TrimSpace(fullName); fullName != "" {
		profile.FullName = &fullName
	}
	if avatarURL = strings.TrimSpace(avatarURL); avatarURL != "" {
		profile.AvatarURL = &avatarURL
	}

	return s.repo.UpsertProfile(ctx, &profile)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	return s.repo.GetProfile(ctx, userID)
}
