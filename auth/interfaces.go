package auth

import "context"

type Service interface {
	RegisterAccount(ctx context.Context, r registerAccountRequest) error
	ValidateCredentials(ctx context.Context, r validateCredentialsRequest) error
	ResetPassword(ctx context.Context, email string) error
	UpsertExternalAccount(ctx context.Context, verifiedEmail string) error
	SignInWithGoogle(ctx context.Context, token string) error
}

type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// Store inserts acc unless its email is taken, in which case it returns ErrExistingEmail.
	Store(ctx context.Context, acc *Account) error
	Update(ctx context.Context, acc *Account) error
}

// Notifier delivers a message to an account owner out of band.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

// IdentityVerifier checks an external identity assertion and returns the verified email claim.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type registerAccountRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	Location        string `json:"location"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

type validateCredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

type googleSignInRequest struct {
	Token string `json:"token"`
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
