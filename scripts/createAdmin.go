package main

import (
	"errors"
	"flag"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/models"
)

// Creates the first admin account, or promotes an existing user to admin.
//
//	go run scripts/createAdmin.go -email admin@example.com -password secret123 -name Admin
func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password (min 8 characters)")
	name := flag.String("name", "Admin", "display name")
	flag.Parse()

	if err := logger.Init(os.Getenv("APP_MODE")); err != nil {
		panic(err)
	}
	defer logger.Log.Sync()

	addr := strings.ToLower(strings.TrimSpace(*email))
	if addr == "" || len(*password) < 8 {
		flag.Usage()
		os.Exit(2)
	}

	config.LoadConfig()
	database.ConnectDb()
	db := database.Database.Db

	var user models.User
	err := db.Where("email = ?", addr).First(&user).Error
	switch {
	case err == nil:
		if err := db.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
			logger.Log.Fatal("promoting user failed", "email", addr, "error", err)
		}
		logger.Log.Info("existing user promoted to admin", "user_id", user.ID)
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		logger.Log.Fatal("user lookup failed", "error", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), config.AppConfig.SaltRound)
	if err != nil {
		logger.Log.Fatal("password hashing failed", "error", err)
	}
	user = models.User{
		Name:     *name,
		Email:    addr,
		Role:     models.RoleAdmin,
		Password: string(hashed),
	}
	if err := db.Create(&user).Error; err != nil {
		logger.Log.Fatal("creating admin failed", "error", err)
	}
	logger.Log.Info("admin created", "user_id", user.ID, "email", addr)
}
