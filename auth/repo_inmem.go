package auth

import (
	"context"
	"sync"
)

type accountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

func NewAccountRepository() Repository {
	return &accountRepository{accounts: map[string]*Account{}}
}

func (repo *accountRepository) Store(_ context.Context, acc *Account) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.accounts[acc.Email]; ok {
		return ErrExistingEmail
	}
	stored := *acc
	repo.accounts[acc.Email] = &stored
	return nil
}

func (repo *accountRepository) Update(_ context.Context, acc *Account) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.accounts[acc.Email]; !ok {
		return ErrNotFound
	}
	stored := *acc
	repo.accounts[acc.Email] = &stored
	return nil
}

func (repo *accountRepository) FindByEmail(_ context.Context, email string) (*Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if acc, ok := repo.accounts[email]; ok {
		found := *acc
		return &found, nil
	}
	return nil, ErrNotFound
}
