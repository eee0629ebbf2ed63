package domain

// User is the signed-in identity. It is owned by the session provider
// and read-only everywhere else.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}
