package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"dojoadmin_go/database"
)

type HealthController struct{}

func (hc *HealthController) Check(c *fiber.Ctx) error {
	status := "ok"
	code := fiber.StatusOK

	sqlDB, err := database.GetDB().DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
