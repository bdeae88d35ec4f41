package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	resetSubject      = "FloodGuard Password Reset"
	resetBodyTemplate = "Your temporary password is: %s"
)

type service struct {
	accounts Repository
	notifier Notifier
	verifier IdentityVerifier
	logger   *zap.Logger

	cost    int
	timeout time.Duration

	// mu serializes read-modify-write sequences over a single account.
	mu sync.Mutex
}

// Options tunes hashing cost and the deadline applied to notifier and verifier calls.
type Options struct {
	BcryptCost      int
	ExternalTimeout time.Duration
}

func NewService(accounts Repository, notifier Notifier, verifier IdentityVerifier, logger *zap.Logger, opts Options) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		accounts: accounts,
		notifier: notifier,
		verifier: verifier,
		logger:   logger,
		cost:     opts.BcryptCost,
		timeout:  opts.ExternalTimeout,
	}
}

func (svc *service) RegisterAccount(ctx context.Context, r registerAccountRequest) error {
	email := normalizeEmail(r.Email)

	if _, err := svc.accounts.FindByEmail(ctx, email); err == nil {
		return ErrExistingEmail
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	hash, err := hashPassword(r.Password, svc.cost)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	profile := Profile{FullName: r.FullName, Phone: r.Phone, Address: r.Address, Location: r.Location}
	acc := NewAccount(email, profile, hash)
	if err := svc.accounts.Store(ctx, acc); err != nil {
		if errors.Is(err, ErrExistingEmail) {
			return ErrExistingEmail
		}
		return fmt.Errorf("%w: error saving account: %v", ErrInternal, err)
	}

	svc.logger.Info("account registered", zap.String("account_id", string(acc.ID)))
	return nil
}

func (svc *service) ValidateCredentials(ctx context.Context, r validateCredentialsRequest) error {
	acc, err := svc.accounts.FindByEmail(ctx, normalizeEmail(r.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if !hashMatchesPassword(acc.PasswordHash, r.Password) {
		return ErrInvalidCredentials
	}
	return nil
}

// ResetPassword replaces the account's password with a temporary one and mails it to the owner.
// When delivery fails the previous hash is restored, unless another reset has replaced it meanwhile.
func (svc *service) ResetPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	temp, err := generateTempPassword()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	tempHash, err := hashPassword(temp, svc.cost)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	previous, err := svc.swapHash(ctx, email, "", tempHash, false)
	if err != nil {
		return err
	}

	nctx, cancel := svc.withTimeout(ctx)
	defer cancel()

	if err := svc.notifier.Notify(nctx, email, resetSubject, fmt.Sprintf(resetBodyTemplate, temp)); err != nil {
		svc.logger.Error("password reset notification failed", zap.Error(err))

		// the caller may be gone; the restore must still reach the store
		if _, rerr := svc.swapHash(context.WithoutCancel(ctx), email, tempHash, previous, true); rerr != nil {
			svc.logger.Error("restoring previous password failed", zap.Error(rerr))
		}

		if isTimeout(nctx, err) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	return nil
}

// swapHash replaces the stored hash with next and returns the hash it replaced.
// With onlyIf set, the swap happens only when the stored hash still equals expected.
func (svc *service) swapHash(ctx context.Context, email, expected, next string, onlyIf bool) (string, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	acc, err := svc.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrInternal, err)
	}

	previous := acc.PasswordHash
	if onlyIf && previous != expected {
		return previous, nil
	}

	acc.PasswordHash = next
	if err := svc.accounts.Update(ctx, acc); err != nil {
		return "", fmt.Errorf("%w: error updating account: %v", ErrInternal, err)
	}
	return previous, nil
}

func (svc *service) UpsertExternalAccount(ctx context.Context, verifiedEmail string) error {
	email := normalizeEmail(verifiedEmail)
	if email == "" {
		return ErrVerificationFailed
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := svc.accounts.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	acc := NewAccount(email, Profile{}, "")
	if err := svc.accounts.Store(ctx, acc); err != nil {
		if errors.Is(err, ErrExistingEmail) {
			return nil
		}
		return fmt.Errorf("%w: error saving account: %v", ErrInternal, err)
	}

	svc.logger.Info("external account created", zap.String("account_id", string(acc.ID)))
	return nil
}

func (svc *service) SignInWithGoogle(ctx context.Context, token string) error {
	vctx, cancel := svc.withTimeout(ctx)
	defer cancel()

	email, err := svc.verifier.Verify(vctx, token)
	if err != nil {
		svc.logger.Warn("google token verification failed", zap.Error(err))
		if isTimeout(vctx, err) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	return svc.UpsertExternalAccount(ctx, email)
}

func (svc *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if svc.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, svc.timeout)
}

func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}
