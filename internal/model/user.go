package model

import "time"

// Roles carried in the access token's "role" claim.
const (
    RoleShopper = "shopper"
    RoleAdmin   = "admin"
)

// User represents an account row in the `users` table.  Registration
// always creates a shopper; admins are provisioned directly in the
// database and cannot be deleted through the API.
//
// Fields:
//  ID           – primary key identifier of the user.
//  UserName     – unique display/login name.
//  Email        – unique email address.
//  Phone        – optional unique phone number.
//  PasswordHash – bcrypt hashed password, never serialized.
//  Role         – shopper or admin.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    `json:"id"`        // users.id
    UserName     string    `json:"userName"`  // users.user_name
    Email        string    `json:"email"`     // users.email
    Phone        *string   `json:"phone"`     // users.phone (nullable)
    PasswordHash string    `json:"-"`         // users.password_hash
    Role         string    `json:"role"`      // users.role
    CreatedAt    time.Time `json:"createdAt"` // users.created_at
}

// PhoneOrEmpty returns the user's phone or "" when none is stored.
func (u User) PhoneOrEmpty() string {
    if u.Phone == nil {
        return ""
    }
    return *u.Phone
}

// UserWithAddress is the admin user listing row: a shopper together with
// the latest address they saved, if any.
type UserWithAddress struct {
    User
    Address *Address `json:"address"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token value is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
