package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"dojoadmin_go/database"
	"dojoadmin_go/middleware"
	"dojoadmin_go/models"
	"dojoadmin_go/normalize"
	"dojoadmin_go/services"
)

type LeadController struct{}

// GetLeads returns leads, newest first, optionally filtered by status
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Lead{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var leads []models.Lead
	if err := query.Order("id DESC").Find(&leads).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"leads": leads,
		"total": len(leads),
	})
}

// GetLead returns a specific lead by ID
func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	var lead models.Lead
	if err := database.DB.First(&lead, id).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"lead": lead})
}

// CreateLead records a new prospect
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	var raw normalize.Record
	if err := c.BodyParser(&raw); err != nil {
		return respondError(c, &models.ValidationError{Message: "invalid request body"})
	}

	cols, err := tableColumns(database.DB, "leads")
	if err != nil {
		return respondError(c, err)
	}

	today := time.Now().Format(normalize.DateFormat)
	rec, err := normalize.Lead(raw, cols, today, true)
	if err != nil {
		return respondError(c, err)
	}

	id, err := insertRecord(database.DB, "leads", rec)
	if err != nil {
		return respondError(c, err)
	}

	var lead models.Lead
	database.DB.First(&lead, id)

	middleware.LogActivity(c, "CREATE", "leads", id, rec)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":   id,
		"lead": lead,
	})
}

// UpdateLead applies a normalized partial update
func (lc *LeadController) UpdateLead(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var raw normalize.Record
	if err := c.BodyParser(&raw); err != nil {
		return respondError(c, &models.ValidationError{Message: "invalid request body"})
	}

	cols, err := tableColumns(database.DB, "leads")
	if err != nil {
		return respondError(c, err)
	}

	today := time.Now().Format(normalize.DateFormat)
	rec, err := normalize.Lead(raw, cols, today, false)
	if err != nil {
		return respondError(c, err)
	}

	if err := updateRecord(database.DB, "leads", id, rec); err != nil {
		return respondError(c, err)
	}

	var lead models.Lead
	database.DB.First(&lead, id)

	middleware.LogActivity(c, "UPDATE", "leads", id, rec)

	return c.JSON(fiber.Map{"lead": lead})
}

// DeleteLead removes a lead outright. Converted leads are kept as the
// audit trail and cannot be deleted.
func (lc *LeadController) DeleteLead(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var lead models.Lead
	if err := database.DB.First(&lead, id).Error; err != nil {
		return respondError(c, err)
	}
	if lead.Status == models.LeadStatusConverted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Converted leads cannot be deleted",
		})
	}

	if err := database.DB.Unscoped().Delete(&lead).Error; err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "DELETE", "leads", id, nil)

	return c.JSON(fiber.Map{"deleted": true})
}

// ConvertLead turns the lead into a student (or merges into a matching
// one) in a single transaction
func (lc *LeadController) ConvertLead(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	converter := services.NewLeadConverter(database.DB)
	result, err := converter.Convert(id)
	if err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "CONVERT", "leads", id, result)

	return c.JSON(result)
}
