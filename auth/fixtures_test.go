package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type notifierSpy struct {
	mu                sync.Mutex
	calls             int
	to, subject, body string
	err               error
	block             bool
}

func (n *notifierSpy) Notify(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	n.calls++
	n.to, n.subject, n.body = to, subject, body
	block, err := n.block, n.err
	n.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (n *notifierSpy) tempPassword() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return strings.TrimPrefix(n.body, "Your temporary password is: ")
}

type verifierMock struct {
	mock.Mock
}

func (v *verifierMock) Verify(ctx context.Context, token string) (string, error) {
	args := v.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func newTestService(accounts Repository, notifier Notifier, verifier IdentityVerifier) Service {
	return NewService(accounts, notifier, verifier, zap.NewNop(), Options{
		BcryptCost:      bcrypt.MinCost,
		ExternalTimeout: 50 * time.Millisecond,
	})
}

func newRegisterRequest(email, password string) registerAccountRequest {
	return registerAccountRequest{
		FullName: "Test User",
		Email:    email,
		Phone:    "0123456789",
		Address:  "1 River Road",
		Location: "Colombo",
		Password: password,
	}
}

type notifierFunc func(ctx context.Context, to, subject, body string) error

func (f notifierFunc) Notify(ctx context.Context, to, subject, body string) error {
	return f(ctx, to, subject, body)
}

// cancelAwareRepository fails updates on a done context, like the database backed stores.
type cancelAwareRepository struct {
	Repository
}

func (r cancelAwareRepository) Update(ctx context.Context, acc *Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Repository.Update(ctx, acc)
}

// lostInsertRepository reports every email as absent but refuses to store it,
// as when a concurrent insert wins between the lookup and the store.
type lostInsertRepository struct {
	Repository
}

func (lostInsertRepository) FindByEmail(context.Context, string) (*Account, error) {
	return nil, ErrNotFound
}

func (lostInsertRepository) Store(context.Context, *Account) error {
	return ErrExistingEmail
}
