package models

import "time"

// DefaultAvatar is assigned to accounts created without a photo.
const DefaultAvatar = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_1280.png"

// User is an account record. The ID is the store's identifier rendered as a
// string (Mongo ObjectID hex or Postgres UUID).
type User struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash, never serialize
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserUpdate is a partial update. Nil fields are left untouched. Password,
// when set, must already be hashed.
type UserUpdate struct {
	Username *string
	Email    *string
	Password *string
	Avatar   *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.Password == nil && u.Avatar == nil
}

// SignupRequest is the JSON body for POST /api/auth/signup.
type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SigninRequest is the JSON body for POST /api/auth/signin.
type SigninRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleRequest is the identity asserted by the OAuth provider, forwarded by
// the client to POST /api/auth/google.
type GoogleRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Photo string `json:"photo" validate:"omitempty,url"`
}

// UpdateUserRequest is the JSON body for POST /api/user/update/{id}.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1"`
	Email    *string `json:"email,omitempty"    validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=1"`
	Avatar   *string `json:"avatar,omitempty"   validate:"omitempty,url"`
}

// AuthResponse is returned by sign-in and the OAuth bridge.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
