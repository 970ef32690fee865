package admin

import "errors"

var (
	ErrSelfRoleChange   = errors.New("admins cannot change their own role")
	ErrSelfDeactivation = errors.New("admins cannot deactivate their own account")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidStatus    = errors.New("invalid booking status")
	ErrNotAGuide        = errors.New("only guides can be verified")
	ErrNotFound         = errors.New("user not found")
)
