package common

import (
	"context"

	userdomain "finance-app-go/internal/domain/user"
	"finance-app-go/pkg/logger"
)

// ProfileReader is the slice of the user service AuthMe needs.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*userdomain.Profile, error)
}

type Handlers struct {
	Profiles ProfileReader
	log      logger.Logger
}

func New(profiles ProfileReader, log logger.Logger) *Handlers {
	return &Handlers{
		Profiles: profiles,
		log:      log,
	}
}
