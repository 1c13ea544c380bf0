package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"dojoadmin_go/database"
	"dojoadmin_go/middleware"
	"dojoadmin_go/models"
	"dojoadmin_go/normalize"
)

type ExpenseController struct{}

func (ec *ExpenseController) GetExpenses(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Expense{})

	if from := c.Query("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("date <= ?", to)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var expenses []models.Expense
	if err := query.Order("date DESC, id DESC").Find(&expenses).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"expenses": expenses,
		"total":    len(expenses),
	})
}

func (ec *ExpenseController) CreateExpense(c *fiber.Ctx) error {
	var raw normalize.Record
	if err := c.BodyParser(&raw); err != nil {
		return respondError(c, &models.ValidationError{Message: "invalid request body"})
	}

	cols, err := tableColumns(database.DB, "expenses")
	if err != nil {
		return respondError(c, err)
	}

	today := time.Now().Format(normalize.DateFormat)
	rec, err := normalize.Expense(raw, cols, today, true)
	if err != nil {
		return respondError(c, err)
	}

	id, err := insertRecord(database.DB, "expenses", rec)
	if err != nil {
		return respondError(c, err)
	}

	var expense models.Expense
	database.DB.First(&expense, id)

	middleware.LogActivity(c, "CREATE", "expenses", id, rec)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      id,
		"expense": expense,
	})
}

func (ec *ExpenseController) UpdateExpense(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var raw normalize.Record
	if err := c.BodyParser(&raw); err != nil {
		return respondError(c, &models.ValidationError{Message: "invalid request body"})
	}

	cols, err := tableColumns(database.DB, "expenses")
	if err != nil {
		return respondError(c, err)
	}

	today := time.Now().Format(normalize.DateFormat)
	rec, err := normalize.Expense(raw, cols, today, false)
	if err != nil {
		return respondError(c, err)
	}

	if err := updateRecord(database.DB, "expenses", id, rec); err != nil {
		return respondError(c, err)
	}

	var expense models.Expense
	database.DB.First(&expense, id)

	middleware.LogActivity(c, "UPDATE", "expenses", id, rec)

	return c.JSON(fiber.Map{"expense": expense})
}

func (ec *ExpenseController) DeleteExpense(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var expense models.Expense
	if err := database.DB.First(&expense, id).Error; err != nil {
		return respondError(c, err)
	}

	if err := database.DB.Unscoped().Delete(&expense).Error; err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "DELETE", "expenses", id, nil)

	return c.JSON(fiber.Map{"deleted": true})
}
