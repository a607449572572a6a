package subscription

import "time"

type Cache interface {
	GetByUserID(userID string) (Status, bool)
	SetByUserID(userID string, status Status, ttl time.Duration)
	DeleteByUserID(userID string)
	Clear()
}

type noopCache struct{}

func (noopCache) GetByUserID(string) (Status, bool) {
	return Status{}, false
}

func (noopCache) SetByUserID(string, Status, time.Duration) {}

func (noopCache) DeleteByUserID(string) {}

func (noopCache) Clear() {}
