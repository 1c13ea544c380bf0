package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dojoadmin_go/database"
	"dojoadmin_go/middleware"
	"dojoadmin_go/models"
)

type AdminController struct{}

type backupPayload struct {
	ExportedAt string              `json:"exported_at"`
	Students   []models.Student    `json:"students"`
	Payments   []models.Payment    `json:"payments"`
	Expenses   []models.Expense    `json:"expenses"`
	Leads      []models.Lead       `json:"leads"`
	Attendance []models.Attendance `json:"attendance"`
}

// ExportData dumps the business tables as a single JSON document
func (ac *AdminController) ExportData(c *fiber.Ctx) error {
	payload := backupPayload{ExportedAt: time.Now().UTC().Format(time.RFC3339)}

	if err := database.DB.Order("id").Find(&payload.Students).Error; err != nil {
		return respondError(c, err)
	}
	if err := database.DB.Order("id").Find(&payload.Payments).Error; err != nil {
		return respondError(c, err)
	}
	if err := database.DB.Order("id").Find(&payload.Expenses).Error; err != nil {
		return respondError(c, err)
	}
	if err := database.DB.Order("id").Find(&payload.Leads).Error; err != nil {
		return respondError(c, err)
	}
	if err := database.DB.Order("id").Find(&payload.Attendance).Error; err != nil {
		return respondError(c, err)
	}

	filename := fmt.Sprintf("backup_%s.json", time.Now().Format("2006-01-02"))
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	middleware.LogActivity(c, "EXPORT", "backup", 0, fiber.Map{
		"students": len(payload.Students),
		"payments": len(payload.Payments),
	})

	return c.JSON(payload)
}

// ImportData restores a backup document. It only loads into empty
// tables so a stray re-import cannot duplicate or clobber live data,
// and the whole restore runs in one transaction.
func (ac *AdminController) ImportData(c *fiber.Ctx) error {
	var payload backupPayload
	if err := c.BodyParser(&payload); err != nil {
		return respondError(c, &models.ValidationError{Message: "invalid backup document"})
	}

	type tableLoad struct {
		model interface{}
		rows  interface{}
		count int
	}
	loads := []tableLoad{
		{&models.Student{}, &payload.Students, len(payload.Students)},
		{&models.Payment{}, &payload.Payments, len(payload.Payments)},
		{&models.Expense{}, &payload.Expenses, len(payload.Expenses)},
		{&models.Lead{}, &payload.Leads, len(payload.Leads)},
		{&models.Attendance{}, &payload.Attendance, len(payload.Attendance)},
	}

	imported := fiber.Map{}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, load := range loads {
			if load.count == 0 {
				continue
			}
			var existing int64
			if err := tx.Model(load.model).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return fmt.Errorf("%w: target table is not empty", models.ErrConflict)
			}
			if err := tx.Create(load.rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}

	imported["students"] = len(payload.Students)
	imported["payments"] = len(payload.Payments)
	imported["expenses"] = len(payload.Expenses)
	imported["leads"] = len(payload.Leads)
	imported["attendance"] = len(payload.Attendance)

	middleware.LogActivity(c, "IMPORT", "backup", 0, imported)

	return c.JSON(fiber.Map{"imported": imported})
}

// GetUsers lists staff accounts
func (ac *AdminController) GetUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := database.DB.Order("id").Find(&users).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"users": users,
		"total": len(users),
	})
}

type updateUserRequest struct {
	Role   string `json:"role" validate:"omitempty,oneof=owner admin staff"`
	Status string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateUser changes a staff account's role or status. The last active
// owner cannot be demoted or deactivated.
func (ac *AdminController) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req updateUserRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return respondError(c, err)
	}

	demoting := (req.Role != "" && req.Role != "owner") || req.Status == "inactive"
	if user.Role == "owner" && demoting {
		var owners int64
		if err := database.DB.Model(&models.User{}).
			Where("role = ? AND status = ? AND id <> ?", "owner", "active", user.ID).
			Count(&owners).Error; err != nil {
			return respondError(c, err)
		}
		if owners == 0 {
			return respondError(c, &models.ValidationError{Field: "role", Message: "cannot demote the last active owner"})
		}
	}

	if req.Role != "" {
		user.Role = req.Role
	}
	if req.Status != "" {
		user.Status = req.Status
	}
	if err := database.DB.Save(&user).Error; err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "users", user.ID, req)

	return c.JSON(fiber.Map{"user": user})
}

// GetLogs pages through the activity log
func (ac *AdminController) GetLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := c.QueryInt("offset", 0)

	query := database.DB.Model(&models.ActivityLog{})
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondError(c, err)
	}

	var logs []models.ActivityLog
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// FlushLogs drains the Redis-buffered activity log into the database
func (ac *AdminController) FlushLogs(c *fiber.Ctx) error {
	flushed, err := middleware.FlushCachedLogs()
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"flushed": flushed})
}
