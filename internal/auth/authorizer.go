package auth

import (
	"errors"

	"github.com/Sudarshan2323/Resto/internal/enum"
)

// ErrOverrideDenied is returned when a caller lacks the elevated permission
// needed to void billed items.
var ErrOverrideDenied = errors.New("bill edit not authorized")

// OverrideAuthorizer grants the bill-edit capability the lifecycle service
// requires before voiding a KOT item. Admins pass on role alone; captains
// must present the configured override PIN.
type OverrideAuthorizer struct {
	pin string
}

// NewOverrideAuthorizer builds an authorizer around the shared override PIN.
// An empty PIN disables the captain escape hatch entirely.
func NewOverrideAuthorizer(pin string) *OverrideAuthorizer {
	return &OverrideAuthorizer{pin: pin}
}

// AuthorizeVoid reports whether the caller may void items on a running bill.
func (a *OverrideAuthorizer) AuthorizeVoid(role, overridePin string) error {
	if role == enum.UserRoleAdmin {
		return nil
	}
	if a.pin != "" && overridePin == a.pin {
		return nil
	}
	return ErrOverrideDenied
}
