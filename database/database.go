package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"dojoadmin_go/config"
	"dojoadmin_go/migrations"
	"dojoadmin_go/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB
var RedisClient *redis.Client

// Connect initializes the database and the optional Redis connection
func Connect() {
	connectDatabase()
	connectRedis()
}

// connectDatabase opens the embedded SQLite file and brings the schema up
// to date: AutoMigrate creates missing tables, then the column migrator
// reconciles historical installations.
func connectDatabase() {
	dsn := config.AppConfig.GetDSN()

	if dir := filepath.Dir(config.AppConfig.DBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("Failed to create data directory:", err)
		}
	}

	var gormLogger logger.Interface
	if config.AppConfig.AppEnv == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	} else {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}

	log.Println("Database connected:", config.AppConfig.DBPath)

	// Configure connection pool. SQLite in WAL mode supports concurrent
	// readers but a single writer; keep the pool small.
	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}

	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(55 * time.Minute)

	if config.AppConfig.SkipMigrate {
		log.Println("SKIP_MIGRATE set, leaving schema untouched")
		return
	}

	AutoMigrate()

	// Reconcile drifted installations: add missing columns, run one-time
	// backfills, fold legacy archive variants into the status enum.
	if errs := migrations.Run(DB); errs > 0 {
		log.Printf("Schema migration finished with %d error(s), see log", errs)
	} else {
		log.Println("Schema migration completed successfully")
	}
}

// AutoMigrate performs automatic database migration
func AutoMigrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Payment{},
		&models.Expense{},
		&models.Lead{},
		&models.Attendance{},
		&models.ActivityLog{},
		&models.Notification{},
	)

	if err != nil {
		log.Fatal("Auto migration failed:", err)
	}

	log.Println("Database migration completed successfully")
}

// connectRedis initializes the optional Redis connection used as an
// activity-log write buffer. The app runs fine without it.
func connectRedis() {
	if config.AppConfig.RedisHost == "" {
		RedisClient = nil
		return
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.AppConfig.RedisHost, config.AppConfig.RedisPort),
		Password: config.AppConfig.RedisPassword,
		DB:       0, // use default DB
	})

	ctx := context.Background()
	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		log.Printf("Redis connection failed: %v", err)
		log.Println("Continuing without Redis - logs will be saved directly to database")
		RedisClient = nil
		return
	}

	log.Println("Redis connected successfully")
}

// GetRedisClient returns the Redis client instance (nil when disabled)
func GetRedisClient() *redis.Client {
	return RedisClient
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Println("Error getting database instance:", err)
		return
	}

	err = sqlDB.Close()
	if err != nil {
		log.Println("Error closing database connection:", err)
		return
	}

	log.Println("Database connection closed")
}
