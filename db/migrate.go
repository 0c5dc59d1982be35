package db

import (
	"fmt"
	"log"

	"github.com/clinova/clinic-booking/models"
)

func Migrate() {
	// Initialize DB connection
	Init()

	// Run AutoMigrate only when explicitly called
	err := DB.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.Appointment{},
		&models.MedicalRecord{},
		&models.Review{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	fmt.Println("✅ Migrations applied successfully!")
}
