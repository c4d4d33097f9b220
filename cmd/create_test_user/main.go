package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"action_items/internal/db"
	"action_items/internal/domain"
	"action_items/internal/repository"
	"action_items/internal/service"
)

func main() {
	// expects DATABASE_URL and JWT_SECRET env vars
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn, db.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	auth := service.NewAuthService(users, service.NewTokenIssuer(secret, 24*time.Hour), nil, nil)

	reg := domain.Registration{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	}

	u, token, err := auth.Register(ctx, reg)
	if errors.Is(err, service.ErrEmailTaken) {
		u, token, err = auth.Login(ctx, domain.Credentials{Email: reg.Email, Password: reg.Password})
		if err == nil {
			log.Printf("user already exists id=%s\n", u.ID)
		}
	} else if err == nil {
		log.Printf("user created id=%s\n", u.ID)
	}
	if err != nil {
		log.Fatalf("create test user failed: %v", err)
	}

	log.Printf("email=%s name=%s created_at=%v\n", u.Email, u.Name, u.CreatedAt)
	log.Printf("token=%s\n", token)
}
