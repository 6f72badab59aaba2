// Package main provides account maintenance utilities for Gamelogue.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"gamelogue/internal/config"
	"gamelogue/internal/database"
	"gamelogue/internal/repository"
	"gamelogue/internal/service"
	"gamelogue/internal/session"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin create-admin <email> <username> <password> - Create a verified account")
	fmt.Println("  go run ./cmd/admin set-password <email> <password>             - Replace an account's password")
	fmt.Println("  go run ./cmd/admin verify-email <email>                        - Mark an email as verified")
	fmt.Println("  go run ./cmd/admin show <email>                                - Print an account")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := repository.NewUserRepository(db)
	auth := service.NewAuthService(users, session.NewManager(cfg.JWTSecret))
	ctx := context.Background()

	args := os.Args[2:]
	switch os.Args[1] {
	case "create-admin":
		if len(args) < 3 {
			usage()
			os.Exit(1)
		}
		user, err := auth.Register(ctx, service.RegisterInput{
			Email:    args[0],
			Username: args[1],
			Password: args[2],
		})
		if err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		if err := auth.VerifyEmail(ctx, user.Email); err != nil {
			log.Fatalf("Failed to verify email: %v", err)
		}
		fmt.Printf("Created %s (ID: %d, email: %s)\n", user.Username, user.ID, user.Email)

	case "set-password":
		if len(args) < 2 {
			usage()
			os.Exit(1)
		}
		if err := auth.SetPassword(ctx, args[0], args[1]); err != nil {
			log.Fatalf("Failed to update password: %v", err)
		}
		fmt.Printf("Password updated for %s\n", args[0])

	case "verify-email":
		if len(args) < 1 {
			usage()
			os.Exit(1)
		}
		if err := auth.VerifyEmail(ctx, args[0]); err != nil {
			log.Fatalf("Failed to verify email: %v", err)
		}
		fmt.Printf("Email verified for %s\n", args[0])

	case "show":
		if len(args) < 1 {
			usage()
			os.Exit(1)
		}
		user, err := service.NewUserService(users).GetByEmail(ctx, args[0])
		if err != nil {
			log.Fatalf("Lookup failed: %v", err)
		}
		fmt.Printf("ID: %d | Username: %s | Email: %s | Verified: %t\n",
			user.ID, user.Username, user.Email, user.EmailVerified)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}
