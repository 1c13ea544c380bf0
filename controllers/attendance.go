package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dojoadmin_go/database"
	"dojoadmin_go/middleware"
	"dojoadmin_go/models"
	"dojoadmin_go/normalize"
)

type AttendanceController struct{}

func (ac *AttendanceController) GetAttendance(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Attendance{})

	if studentID := c.QueryInt("student_id"); studentID > 0 {
		query = query.Where("student_id = ?", studentID)
	}
	if date := c.Query("date"); date != "" {
		query = query.Where("date = ?", date)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("date <= ?", to)
	}

	var records []models.Attendance
	if err := query.Preload("Student").Order("date DESC, id DESC").Find(&records).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"attendance": records,
		"total":      len(records),
	})
}

// CreateAttendance marks a single student for a date. Marking the same
// student twice on one day updates the existing row instead of adding
// a duplicate.
func (ac *AttendanceController) CreateAttendance(c *fiber.Ctx) error {
	var raw normalize.Record
	if err := c.BodyParser(&raw); err != nil {
		return respondError(c, &models.ValidationError{Message: "invalid request body"})
	}

	cols, err := tableColumns(database.DB, "attendance")
	if err != nil {
		return respondError(c, err)
	}

	today := time.Now().Format(normalize.DateFormat)
	rec, err := normalize.Attendance(raw, cols, today, true)
	if err != nil {
		return respondError(c, err)
	}

	studentID, _ := rec["student_id"].(int)
	var count int64
	if err := database.DB.Model(&models.Student{}).Where("id = ?", studentID).Count(&count).Error; err != nil {
		return respondError(c, err)
	}
	if count == 0 {
		return respondError(c, &models.ValidationError{Field: "student_id", Message: "student does not exist"})
	}

	var existing models.Attendance
	err = database.DB.Where("student_id = ? AND date = ?", studentID, rec["date"]).First(&existing).Error
	if err == nil {
		if err := updateRecord(database.DB, "attendance", existing.ID, normalize.Record{"present": rec["present"]}); err != nil {
			return respondError(c, err)
		}
		database.DB.First(&existing, existing.ID)
		middleware.LogActivity(c, "UPDATE", "attendance", existing.ID, rec)
		return c.JSON(fiber.Map{"attendance": existing})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, err)
	}

	id, err := insertRecord(database.DB, "attendance", rec)
	if err != nil {
		return respondError(c, err)
	}

	var record models.Attendance
	database.DB.First(&record, id)

	middleware.LogActivity(c, "CREATE", "attendance", id, rec)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         id,
		"attendance": record,
	})
}

func (ac *AttendanceController) UpdateAttendance(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var raw normalize.Record
	if err := c.BodyParser(&raw); err != nil {
		return respondError(c, &models.ValidationError{Message: "invalid request body"})
	}

	cols, err := tableColumns(database.DB, "attendance")
	if err != nil {
		return respondError(c, err)
	}

	today := time.Now().Format(normalize.DateFormat)
	rec, err := normalize.Attendance(raw, cols, today, false)
	if err != nil {
		return respondError(c, err)
	}

	if err := updateRecord(database.DB, "attendance", id, rec); err != nil {
		return respondError(c, err)
	}

	var record models.Attendance
	database.DB.First(&record, id)

	middleware.LogActivity(c, "UPDATE", "attendance", id, rec)

	return c.JSON(fiber.Map{"attendance": record})
}

func (ac *AttendanceController) DeleteAttendance(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var record models.Attendance
	if err := database.DB.First(&record, id).Error; err != nil {
		return respondError(c, err)
	}

	if err := database.DB.Unscoped().Delete(&record).Error; err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "DELETE", "attendance", id, nil)

	return c.JSON(fiber.Map{"deleted": true})
}
