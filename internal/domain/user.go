package domain

// User is an operator account; assignments record which user created them.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
}
