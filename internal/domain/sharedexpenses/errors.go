package sharedexpenses

import "errors"

var (
	ErrTitleRequired        = errors.New("title is required")
	ErrGroupRequired        = errors.New("group is required")
	ErrExpenseNotFound      = errors.New("shared expense not found")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrNotMember            = errors.New("not a group member")
	ErrParticipantNotMember = errors.New("split includes someone outside the group")
	ErrPayerNotInSplits     = errors.New("splits must include the payer")
	ErrSplitMismatch        = errors.New("splits do not add up to the total")
	ErrNegativeShare        = errors.New("share must not be negative")
	ErrNotCreator           = errors.New("only the creator can do this")
	ErrNotAllowed           = errors.New("only the participant or the creator can change paid status")
)
