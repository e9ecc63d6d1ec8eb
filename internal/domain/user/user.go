package user

import (
	"context"
	"strings"
	"time"

	"homio/internal/domain/listings"
	"homio/internal/domain/shared/fault"
)

var (
	ErrIDRequired          = fault.New(fault.ErrValidation, "user: id is required")
	ErrEmailRequired       = fault.New(fault.ErrValidation, "user: email is required")
	ErrPasswordHashMissing = fault.New(fault.ErrValidation, "user: password hash is required")
	ErrNameRequired        = fault.New(fault.ErrValidation, "user: name is required")
	ErrInvalidRole         = fault.New(fault.ErrValidation, "user: invalid role")
	ErrEmailAlreadyUsed    = fault.New(fault.ErrConflict, "user: an account with this email and role already exists")
	ErrNotFound            = fault.New(fault.ErrNotFound, "user: not found")
)

type ID string

type Role string

const (
	// RoleUser is a traveler who books and reviews listings.
	RoleUser Role = "user"
	RoleHost Role = "host"

	DefaultRole = RoleUser
)

// User accounts are unique per (email, role): the same address may hold a
// traveler account and a separate host account.
type User struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Wishlist     []listings.ListingID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string, role Role) (*User, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	role, err := ParseRole(string(params.Role))
	if err != nil {
		return nil, err
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	return &User{
		ID:           ID(id),
		Email:        email,
		Name:         name,
		PasswordHash: params.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) HasRole(role Role) bool {
	return u.Role == role
}

// ToggleWishlist adds or removes id and reports whether it is now saved.
func (u *User) ToggleWishlist(id listings.ListingID, now time.Time) bool {
	for i, existing := range u.Wishlist {
		if existing == id {
			u.Wishlist = append(u.Wishlist[:i:i], u.Wishlist[i+1:]...)
			u.touch(now)
			return false
		}
	}
	u.Wishlist = append(u.Wishlist, id)
	u.touch(now)
	return true
}

func (u *User) InWishlist(id listings.ListingID) bool {
	for _, existing := range u.Wishlist {
		if existing == id {
			return true
		}
	}
	return false
}

// ReplacePasswordHash swaps in a fresh hash of the same password.
func (u *User) ReplacePasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return ErrPasswordHashMissing
	}
	u.PasswordHash = hash
	u.touch(now)
	return nil
}

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

// ParseRole accepts "user" or "host"; an empty value yields DefaultRole.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return DefaultRole, nil
	case string(RoleUser):
		return RoleUser, nil
	case string(RoleHost):
		return RoleHost, nil
	default:
		return "", ErrInvalidRole
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
