package groups

import "errors"

var (
	ErrNameRequired         = errors.New("name is required")
	ErrInvalidEmail         = errors.New("invalid email")
	ErrGroupNotFound        = errors.New("group not found")
	ErrNotMember            = errors.New("not a group member")
	ErrNotAdmin             = errors.New("not a group admin")
	ErrNotCreator           = errors.New("not the group creator")
	ErrMemberNotFound       = errors.New("member not found")
	ErrAlreadyMember        = errors.New("already a group member")
	ErrCannotRemoveCreator  = errors.New("cannot remove group creator")
	ErrCreatorCannotLeave   = errors.New("group creator cannot leave")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationExpired    = errors.New("invitation expired")
	ErrInvitationNotPending = errors.New("invitation already answered")
	ErrInvitationExists     = errors.New("pending invitation already exists")
	ErrInvitationMismatch   = errors.New("invitation was sent to another email")
)
