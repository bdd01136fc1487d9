package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/oksasatya/langbridge/config"
	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/domain/repository"
	pginfra "github.com/oksasatya/langbridge/internal/infrastructure/postgres"
	"github.com/oksasatya/langbridge/internal/infrastructure/search"
	"github.com/oksasatya/langbridge/pkg/helpers"
)

type demoUser struct {
	name, email, native, learning, location, bio string
}

var demoUsers = []demoUser{
	{"Ana Lopez", "ana@example.com", "spanish", "german", "Madrid", "Looking for a tandem partner for German."},
	{"Jonas Weber", "jonas@example.com", "german", "spanish", "Berlin", "Happy to help with German grammar."},
	{"Yuki Tanaka", "yuki@example.com", "japanese", "english", "Osaka", "Anime, cooking and English practice."},
	{"Emma Brown", "emma@example.com", "english", "japanese", "Leeds", "Studying for the JLPT N3."},
	{"Lucas Martin", "lucas@example.com", "french", "english", "Lyon", "Podcasts and football."},
}

const demoPassword = "password123"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
		MaxConns:     cfg.DBMaxConns,
		MinConns:     cfg.DBMinConns,
		MaxConnLife:  cfg.DBMaxConnLife,
		PingAttempts: cfg.DBPingAttempts,
	}, helpers.NewLogger(cfg.AppName+"-seed", cfg.Env))
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	users := pginfra.NewUserRepository(pool)

	var index *search.UserIndex
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("failed to init elasticsearch client: %v", err)
		}
		index = search.NewUserIndex(es, cfg.ESUsersIndex)
		if err := index.EnsureIndex(ctx); err != nil {
			log.Fatalf("failed to create users index: %v", err)
		}
	}

	hash, err := helpers.HashPassword(demoPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	for i, d := range demoUsers {
		u, err := users.GetByEmail(ctx, d.email)
		switch {
		case err == nil:
			fmt.Printf("exists: id=%s email=%s\n", u.ID, u.Email)
		case errors.Is(err, repository.ErrNotFound):
			u = &entity.User{
				ID:               uuid.NewString(),
				FullName:         d.name,
				Email:            d.email,
				Password:         hash,
				ProfilePic:       fmt.Sprintf("https://avatar.iran.liara.run/public/%d.png", i+1),
				Bio:              d.bio,
				NativeLanguage:   d.native,
				LearningLanguage: d.learning,
				Location:         d.location,
				IsOnboarded:      true,
			}
			if err := users.Create(ctx, u); err != nil {
				log.Fatalf("failed to seed %s: %v", d.email, err)
			}
			fmt.Printf("seeded: id=%s email=%s password=%s\n", u.ID, u.Email, demoPassword)
		default:
			log.Fatalf("failed to look up %s: %v", d.email, err)
		}

		if index != nil {
			if err := index.Index(ctx, u); err != nil {
				log.Printf("index %s: %v", u.Email, err)
			}
		}
	}
}
