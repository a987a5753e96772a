package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/auth"
	"max.ks1230/billtracker/internal/config"
	"max.ks1230/billtracker/internal/entity/user"
	"max.ks1230/billtracker/internal/logger"
	"max.ks1230/billtracker/internal/model/storage"
)

func main() {
	defer logger.Sync()

	email := flag.String("email", "", "email of the user to create")
	name := flag.String("name", "", "display name, defaults to the email")
	existing := flag.String("id", "", "issue a token for an existing user id instead")
	flag.Parse()

	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config", zap.Error(err))
	}

	store, err := storage.New(conf.Database())
	if err != nil {
		logger.Fatal("failed to init storage", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	var rec *user.Record
	switch {
	case *existing != "":
		rec = lookupUser(ctx, store, *existing)
	case *email != "":
		rec = createUser(ctx, store, *email, *name)
	default:
		flag.Usage()
		return
	}

	token, err := auth.NewJWTManager(conf.Auth()).Generate(rec)
	if err != nil {
		logger.Fatal("failed to issue token", zap.Error(err))
	}
	fmt.Printf("user:  %s\ntoken: %s\n", rec.ID, token)
}

func lookupUser(ctx context.Context, store *storage.Storage, rawID string) *user.Record {
	id, err := uuid.Parse(rawID)
	if err != nil {
		logger.Fatal("invalid user id", zap.Error(err))
	}
	rec, err := store.GetUserByID(ctx, id)
	if err != nil {
		logger.Fatal("failed to load user", zap.Error(err))
	}
	if rec == nil {
		logger.Fatal("user not found", zap.Stringer("userID", id))
	}
	return rec
}

func createUser(ctx context.Context, store *storage.Storage, email, name string) *user.Record {
	if name == "" {
		name = email
	}
	rec := &user.Record{
		ID:        uuid.New(),
		Email:     email,
		UserName:  name,
		CreatedAt: time.Now(),
	}
	if err := store.CreateUser(ctx, rec); err != nil {
		logger.Fatal("failed to create user", zap.Error(err))
	}
	logger.Info("user created", zap.Stringer("userID", rec.ID))
	return rec
}
