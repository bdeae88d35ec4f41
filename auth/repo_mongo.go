package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoAccountRepository struct {
	collection *mongo.Collection
}

type dbAccount struct {
	ID           ID        `bson:"_id"`
	Email        string    `bson:"email"`
	FullName     string    `bson:"fullName"`
	Phone        string    `bson:"phone"`
	Address      string    `bson:"address"`
	Location     string    `bson:"location"`
	PasswordHash *string   `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
}

//NewMongoAccountRepository ensures the unique email index exists and returns a Repository backed by c
func NewMongoAccountRepository(ctx context.Context, c *mongo.Collection) (Repository, error) {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("error creating email index: %w", err)
	}
	return &mongoAccountRepository{collection: c}, nil
}

func (m *mongoAccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var a dbAccount
	sr := m.collection.FindOne(ctx, bson.M{"email": email})

	if errors.Is(sr.Err(), mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}

	if err := sr.Decode(&a); err != nil {
		return nil, err
	}

	acc := accountFromDBAccount(a)
	return &acc, nil
}

func (m *mongoAccountRepository) Store(ctx context.Context, acc *Account) error {
	dba := dbAccountFromAccount(acc)
	_, err := m.collection.InsertOne(ctx, &dba)
	return storeError(err)
}

// storeError maps a unique email index violation to ErrExistingEmail.
func storeError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrExistingEmail
	}
	return err
}

func (m *mongoAccountRepository) Update(ctx context.Context, acc *Account) error {
	dba := dbAccountFromAccount(acc)
	res, err := m.collection.ReplaceOne(ctx, bson.M{"email": dba.Email}, dba)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func dbAccountFromAccount(acc *Account) dbAccount {
	var hash *string
	if acc.HasPassword() {
		h := acc.PasswordHash
		hash = &h
	}
	p := acc.Profile
	return dbAccount{acc.ID, acc.Email, p.FullName, p.Phone, p.Address, p.Location, hash, acc.CreatedAt}
}

func accountFromDBAccount(a dbAccount) Account {
	acc := Account{
		ID:        a.ID,
		Email:     a.Email,
		Profile:   Profile{a.FullName, a.Phone, a.Address, a.Location},
		CreatedAt: a.CreatedAt,
	}
	if a.PasswordHash != nil {
		acc.PasswordHash = *a.PasswordHash
	}
	return acc
}
