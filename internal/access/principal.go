// Package access resolves bearer tokens to principals and holds the
// authorization rules applied to every order operation.
package access

import "orderhub/internal/model"

// Principal is the authenticated user for the duration of one request.
type Principal struct {
	ID    uint
	Name  string
	Email string
	Admin bool
}

// FromUser builds a Principal from a stored user.
func FromUser(u *model.User) *Principal {
	return &Principal{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Admin: u.Admin,
	}
}
