package auth

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rs/xid"
)

type Account struct {
	ID           ID
	Email        string
	Profile      Profile
	PasswordHash string
	CreatedAt    time.Time
}

type ID string

//Profile holds the free-form details collected at sign up
type Profile struct {
	FullName,
	Phone,
	Address,
	Location string
}

var (
	ErrExistingEmail      = errors.New("email in use")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotificationFailed = errors.New("notification failed")
	ErrVerificationFailed = errors.New("identity verification failed")
	ErrTimeout            = errors.New("external service timed out")
	ErrInternal           = errors.New("internal error")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrMissingFields      = errors.New("email and password are required")
)

const (
	tempPasswordLength   = 6
	tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

//NewAccount returns a new Account with a fresh ID for the normalized email.
// An empty hash marks an account that can only sign in through an external identity.
func NewAccount(email string, profile Profile, hash string) *Account {
	return &Account{
		ID:           NewID(),
		Email:        normalizeEmail(email),
		Profile:      profile,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
}

func (acc *Account) HasPassword() bool {
	return acc.PasswordHash != ""
}

func NewID() ID {
	return ID(xid.New().String())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.New("error hashing password")
	}
	return string(hash), nil
}

func hashMatchesPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func generateTempPassword() (string, error) {
	limit := big.NewInt(int64(len(tempPasswordAlphabet)))

	var b strings.Builder
	b.Grow(tempPasswordLength)
	for i := 0; i < tempPasswordLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(tempPasswordAlphabet[n.Int64()])
	}
	return b.String(), nil
}
