package identity

// Account is the user record the identity service returns on success.
// The service guarantees email and createdAt; fullName may be empty and is
// then synthesized locally from the email.
type Account struct {
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	CreatedAt string `json:"createdAt"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
	// Optional demographic fields collected on sign-up.
	AgeRange string   `json:"ageRange,omitempty"`
	Goals    []string `json:"goals,omitempty"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
