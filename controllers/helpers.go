package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dojoadmin_go/models"
)

var validate = validator.New()

// parseBody binds and validates a request DTO.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return &models.ValidationError{Message: "invalid request body"}
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return &models.ValidationError{
				Field:   strings.ToLower(f.Field()),
				Message: fmt.Sprintf("failed %q validation", f.Tag()),
			}
		}
		return &models.ValidationError{Message: err.Error()}
	}
	return nil
}

// respondError translates the error taxonomy into HTTP status codes.
// 404 for missing records, 400 for bad input, 409 for state conflicts,
// 500 for everything storage- or schema-shaped.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, models.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// parseID reads the :id route parameter.
func parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, &models.ValidationError{Field: "id", Message: "invalid id"}
	}
	return uint(id), nil
}

// insertRecord writes a normalized record into a table and returns the
// new row id. Runs in a transaction so last_insert_rowid() is read on
// the same connection that did the insert.
func insertRecord(db *gorm.DB, table string, rec map[string]any) (uint, error) {
	var id uint
	err := db.Transaction(func(tx *gorm.DB) error {
		if len(rec) == 0 {
			return &models.ValidationError{Message: "no matching columns to insert"}
		}
		if err := tx.Table(table).Create(map[string]any(rec)).Error; err != nil {
			return fmt.Errorf("%w: %v", models.ErrStorage, err)
		}
		if err := tx.Raw("SELECT last_insert_rowid()").Scan(&id).Error; err != nil {
			return fmt.Errorf("%w: %v", models.ErrStorage, err)
		}
		return nil
	})
	return id, err
}

// updateRecord applies a normalized record to an existing row. Reports
// ErrNotFound when the row doesn't exist.
func updateRecord(db *gorm.DB, table string, id uint, rec map[string]any) error {
	if len(rec) == 0 {
		return nil
	}
	var count int64
	if err := db.Table(table).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	if count == 0 {
		return fmt.Errorf("%s %d: %w", table, id, models.ErrNotFound)
	}
	if err := db.Table(table).Where("id = ?", id).Updates(map[string]any(rec)).Error; err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	return nil
}
