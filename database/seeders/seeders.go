package seeders

import (
	"log"

	"dojoadmin_go/config"
	"dojoadmin_go/database"
	"dojoadmin_go/models"
	"dojoadmin_go/utils"
)

// SeedAll runs all seeders
func SeedAll() {
	SeedAdminUser()
}

// SeedAdminUser creates the first owner account from ADMIN_USERNAME /
// ADMIN_PASSWORD. Skipped once any user exists. Without a configured
// password, a one-time random one is generated and printed so a fresh
// development install is never locked out.
func SeedAdminUser() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	password := config.AppConfig.AdminPassword
	if password == "" {
		generated, err := utils.GenerateRandomString(16)
		if err != nil {
			log.Printf("Error generating admin password: %v", err)
			return
		}
		password = generated
		log.Printf("No ADMIN_PASSWORD set; generated admin password: %s", password)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Error hashing admin password: %v", err)
		return
	}

	admin := models.User{
		Username: config.AppConfig.AdminUsername,
		Password: hashed,
		Role:     "owner",
		Status:   "active",
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		log.Printf("Error seeding admin user: %v", err)
		return
	}

	log.Printf("Admin user %q seeded", admin.Username)
}
