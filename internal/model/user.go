package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
const (
    RoleOrganizer = "ORGANIZER"
    RoleAdmin     = "ADMIN"
)

// User is an account in the users table.  Organizers own halls and events;
// admins may act on any organizer's resources.  The password hash never
// leaves the repository layer in a response.
type User struct {
    ID           uint64    `json:"id"`
    Username     string    `json:"username"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    Role         string    `json:"role"`
    IsActive     bool      `json:"is_active"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}
