package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/mo-amir99/course-server-go/internal/bootstrap"
	"github.com/mo-amir99/course-server-go/internal/features/user"
	"github.com/mo-amir99/course-server-go/pkg/config"
	"github.com/mo-amir99/course-server-go/pkg/database"
	"github.com/mo-amir99/course-server-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	db, err := database.Connect(context.Background(), cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close(db, appLogger)

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		value, _ := reader.ReadString('\n')
		return strings.TrimSpace(value)
	}

	account := bootstrap.AdminAccount{
		Name:     prompt("Name: "),
		Email:    prompt("Email: "),
		Password: prompt("Password (min 8 chars): "),
	}

	if account.Name == "" || account.Email == "" || len(account.Password) < 8 {
		fmt.Println("Error: name, email, and password (min 8 chars) are required")
		os.Exit(1)
	}

	if err := bootstrap.EnsureAdmin(db, appLogger, account); err != nil {
		appLogger.Error("Failed to create admin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	admin, err := user.GetByEmail(db, account.Email)
	if err != nil {
		appLogger.Error("Failed to load admin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("\nAdmin ready!")
	fmt.Printf("   ID: %d\n", admin.ID)
	fmt.Printf("   Email: %s\n", admin.Email)
	fmt.Printf("   Role: %s\n", admin.Role)
}
