// Package accesscontrol holds the role table shared by the ledger and the sale engine.
//
// There is exactly one governance identity. It can only be replaced by itself. Operators and
// managers are flag sets that only governance may change.
package accesscontrol

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
)

type Role string

const (
	RoleGovernance Role = "governance"
	RoleOperator   Role = "operator"
	RoleManager    Role = "manager"
)

var ErrUnknownRole = errors.New("unknown role")

func (r Role) Validate() error {
	switch r {
	case RoleGovernance, RoleOperator, RoleManager:
		return nil
	}
	return errors.Wrapf(ErrUnknownRole, "role %q", string(r))
}

type AccessControl struct {
	governance common.Address
	operators  map[common.Address]struct{}
	managers   map[common.Address]struct{}
}

func New(governance common.Address) *AccessControl {
	return &AccessControl{
		governance: governance,
		operators:  make(map[common.Address]struct{}),
		managers:   make(map[common.Address]struct{}),
	}
}

func (a *AccessControl) Governance() common.Address {
	return a.governance
}

func (a *AccessControl) HasRole(account common.Address, role Role) bool {
	switch role {
	case RoleGovernance:
		return account == a.governance
	case RoleOperator:
		_, ok := a.operators[account]
		return ok
	case RoleManager:
		_, ok := a.managers[account]
		return ok
	}
	return false
}

// RequireRole returns a wrapped [errs.Unauthorized] if account does not hold role.
func (a *AccessControl) RequireRole(account common.Address, role Role) error {
	if !a.HasRole(account, role) {
		return errors.Wrapf(errs.Unauthorized, "%s is missing role %s", account, role)
	}
	return nil
}

// RequireAnyRole succeeds if account holds at least one of roles.
func (a *AccessControl) RequireAnyRole(account common.Address, roles ...Role) error {
	for _, role := range roles {
		if a.HasRole(account, role) {
			return nil
		}
	}
	return errors.Wrapf(errs.Unauthorized, "%s is missing any of roles %v", account, roles)
}

// SetGovernance hands governance to next. Only the current governance may call it.
func (a *AccessControl) SetGovernance(sender, next common.Address) error {
	if err := a.RequireRole(sender, RoleGovernance); err != nil {
		return errors.WithStack(err)
	}
	if next.IsZero() {
		return errors.Wrap(errs.InvalidArgument, "governance cannot be the zero address")
	}
	a.governance = next
	return nil
}

// Grant gives role to account. Granting [RoleGovernance] transfers governance.
func (a *AccessControl) Grant(sender common.Address, role Role, account common.Address) error {
	if err := role.Validate(); err != nil {
		return errors.WithStack(err)
	}
	if role == RoleGovernance {
		return a.SetGovernance(sender, account)
	}
	if err := a.RequireRole(sender, RoleGovernance); err != nil {
		return errors.WithStack(err)
	}
	if account.IsZero() {
		return errors.Wrap(errs.InvalidArgument, "cannot grant a role to the zero address")
	}
	a.set(role)[account] = struct{}{}
	return nil
}

// Revoke removes role from account. Governance can only be handed over, never revoked.
func (a *AccessControl) Revoke(sender common.Address, role Role, account common.Address) error {
	if err := role.Validate(); err != nil {
		return errors.WithStack(err)
	}
	if err := a.RequireRole(sender, RoleGovernance); err != nil {
		return errors.WithStack(err)
	}
	if role == RoleGovernance {
		return errors.Wrap(errs.Unsupported, "governance cannot be revoked, hand it over instead")
	}
	delete(a.set(role), account)
	return nil
}

// SetRole sets or clears a flag role. It is the boolean form of [AccessControl.Grant] and [AccessControl.Revoke].
func (a *AccessControl) SetRole(sender common.Address, role Role, account common.Address, enabled bool) error {
	if enabled {
		return a.Grant(sender, role, account)
	}
	return a.Revoke(sender, role, account)
}

// Members lists holders of a flag role in address order.
func (a *AccessControl) Members(role Role) []common.Address {
	if role == RoleGovernance {
		return []common.Address{a.governance}
	}
	set := a.set(role)
	members := make([]common.Address, 0, len(set))
	for account := range set {
		members = append(members, account)
	}
	slices.SortFunc(members, common.Address.Compare)
	return members
}

func (a *AccessControl) set(role Role) map[common.Address]struct{} {
	if role == RoleOperator {
		return a.operators
	}
	return a.managers
}
