package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"dojoadmin_go/database"
	"dojoadmin_go/middleware"
	"dojoadmin_go/models"
	"dojoadmin_go/normalize"
)

type PaymentController struct{}

// GetPayments lists payments, newest first, filterable by student and
// date range
func (pc *PaymentController) GetPayments(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Payment{})

	if studentID := c.QueryInt("student_id"); studentID > 0 {
		query = query.Where("student_id = ?", studentID)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("date <= ?", to)
	}
	if taxable := c.Query("taxable"); taxable != "" {
		query = query.Where("taxable = ?", taxable == "true" || taxable == "1")
	}

	var payments []models.Payment
	if err := query.Preload("Student").Order("date DESC, id DESC").Find(&payments).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"payments": payments,
		"total":    len(payments),
	})
}

// CreatePayment records a payment. Amount defaults to 0 and date to
// today so the row always participates in totals.
func (pc *PaymentController) CreatePayment(c *fiber.Ctx) error {
	var raw normalize.Record
	if err := c.BodyParser(&raw); err != nil {
		return respondError(c, &models.ValidationError{Message: "invalid request body"})
	}

	cols, err := tableColumns(database.DB, "payments")
	if err != nil {
		return respondError(c, err)
	}

	today := time.Now().Format(normalize.DateFormat)
	rec, err := normalize.Payment(raw, cols, today, true)
	if err != nil {
		return respondError(c, err)
	}

	// A payment may be unattached, but a named student must exist.
	if sid, ok := rec["student_id"].(*int); ok && sid != nil {
		var count int64
		if err := database.DB.Model(&models.Student{}).Where("id = ?", *sid).Count(&count).Error; err != nil {
			return respondError(c, err)
		}
		if count == 0 {
			return respondError(c, &models.ValidationError{Field: "student_id", Message: "student does not exist"})
		}
	}

	id, err := insertRecord(database.DB, "payments", rec)
	if err != nil {
		return respondError(c, err)
	}

	var payment models.Payment
	database.DB.First(&payment, id)

	middleware.LogActivity(c, "CREATE", "payments", id, rec)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      id,
		"payment": payment,
	})
}

// UpdatePayment applies a normalized partial update
func (pc *PaymentController) UpdatePayment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var raw normalize.Record
	if err := c.BodyParser(&raw); err != nil {
		return respondError(c, &models.ValidationError{Message: "invalid request body"})
	}

	cols, err := tableColumns(database.DB, "payments")
	if err != nil {
		return respondError(c, err)
	}

	today := time.Now().Format(normalize.DateFormat)
	rec, err := normalize.Payment(raw, cols, today, false)
	if err != nil {
		return respondError(c, err)
	}

	if err := updateRecord(database.DB, "payments", id, rec); err != nil {
		return respondError(c, err)
	}

	var payment models.Payment
	database.DB.First(&payment, id)

	middleware.LogActivity(c, "UPDATE", "payments", id, rec)

	return c.JSON(fiber.Map{"payment": payment})
}

// DeletePayment removes a payment record
func (pc *PaymentController) DeletePayment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var payment models.Payment
	if err := database.DB.First(&payment, id).Error; err != nil {
		return respondError(c, err)
	}

	if err := database.DB.Unscoped().Delete(&payment).Error; err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "DELETE", "payments", id, nil)

	return c.JSON(fiber.Map{"deleted": true})
}
