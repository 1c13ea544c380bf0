package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"dojoadmin_go/database"
	"dojoadmin_go/middleware"
	"dojoadmin_go/models"
	"dojoadmin_go/normalize"
	"dojoadmin_go/storage"
)

type StudentController struct{}

// GetStudents returns students filtered by lifecycle status:
// ?status=active (default) | archived | all
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Student{})

	switch c.Query("status", models.StudentStatusActive) {
	case "all":
	case models.StudentStatusArchived:
		query = query.Where("status = ?", models.StudentStatusArchived)
	default:
		query = query.Where("status = ?", models.StudentStatusActive)
	}

	if program := c.Query("program"); program != "" {
		query = query.Where("program = ?", program)
	}
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR phone LIKE ? OR email LIKE ?",
			like, like, like, like)
	}

	var students []models.Student
	if err := query.Order("last_name ASC, first_name ASC, id ASC").Find(&students).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"students": students,
		"total":    len(students),
	})
}

// GetStudent returns a specific student by ID
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var student models.Student
	if err := database.DB.Preload("Payments").Preload("Attendance").
		First(&student, id).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"student": student})
}

// CreateStudent normalizes the payload against the live schema and
// inserts only the columns the table actually has.
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var raw normalize.Record
	if err := c.BodyParser(&raw); err != nil {
		return respondError(c, &models.ValidationError{Message: "invalid request body"})
	}

	cols, err := tableColumns(database.DB, "students")
	if err != nil {
		return respondError(c, err)
	}

	today := time.Now().Format(normalize.DateFormat)
	rec, err := normalize.Student(raw, cols, today, true)
	if err != nil {
		return respondError(c, err)
	}

	id, err := insertRecord(database.DB, "students", rec)
	if err != nil {
		return respondError(c, err)
	}

	var student models.Student
	database.DB.First(&student, id)

	middleware.LogActivity(c, "CREATE", "students", id, rec)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      id,
		"student": student,
	})
}

// UpdateStudent applies a normalized partial update
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var raw normalize.Record
	if err := c.BodyParser(&raw); err != nil {
		return respondError(c, &models.ValidationError{Message: "invalid request body"})
	}

	cols, err := tableColumns(database.DB, "students")
	if err != nil {
		return respondError(c, err)
	}

	today := time.Now().Format(normalize.DateFormat)
	rec, err := normalize.Student(raw, cols, today, false)
	if err != nil {
		return respondError(c, err)
	}

	if err := updateRecord(database.DB, "students", id, rec); err != nil {
		return respondError(c, err)
	}

	var student models.Student
	database.DB.First(&student, id)

	middleware.LogActivity(c, "UPDATE", "students", id, rec)

	return c.JSON(fiber.Map{"student": student})
}

// DeleteStudent archives by default. One historical variant moved rows to
// an old_students table, another flagged them; the redesign settles on
// the status flag, and physical deletion needs ?hard=true plus the
// owner/admin role.
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var student models.Student
	if err := database.DB.First(&student, id).Error; err != nil {
		return respondError(c, err)
	}

	if c.Query("hard") == "true" {
		claims, ok := c.Locals("claims").(*middleware.Claims)
		if !ok || (claims.Role != "owner" && claims.Role != "admin") {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Hard delete requires owner or admin role",
			})
		}
		if err := database.DB.Unscoped().Delete(&student).Error; err != nil {
			return respondError(c, err)
		}
		middleware.LogActivity(c, "DELETE", "students", id, fiber.Map{"hard": true})
		return c.JSON(fiber.Map{"deleted": true})
	}

	return sc.setStatus(c, &student, models.StudentStatusArchived)
}

// ArchiveStudent moves the student to the archived state
func (sc *StudentController) ArchiveStudent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	var student models.Student
	if err := database.DB.First(&student, id).Error; err != nil {
		return respondError(c, err)
	}
	return sc.setStatus(c, &student, models.StudentStatusArchived)
}

// RestoreStudent returns an archived student to the active roll
func (sc *StudentController) RestoreStudent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	var student models.Student
	if err := database.DB.First(&student, id).Error; err != nil {
		return respondError(c, err)
	}
	return sc.setStatus(c, &student, models.StudentStatusActive)
}

func (sc *StudentController) setStatus(c *fiber.Ctx, student *models.Student, status string) error {
	if err := database.DB.Model(student).Update("status", status).Error; err != nil {
		return respondError(c, err)
	}
	middleware.LogActivity(c, "UPDATE", "students", student.ID, fiber.Map{"status": status})
	return c.JSON(fiber.Map{"id": student.ID, "status": status})
}

// UploadPhoto stores a student photo and persists the returned path
func (sc *StudentController) UploadPhoto(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	var student models.Student
	if err := database.DB.First(&student, id).Error; err != nil {
		return respondError(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, &models.ValidationError{Field: "file", Message: "no file uploaded"})
	}

	store, err := storage.NewStorageService()
	if err != nil {
		return respondError(c, err)
	}
	url, err := store.SaveUpload(file, "photos")
	if err != nil {
		return respondError(c, err)
	}

	// Replace rather than accumulate; old photo is best-effort removed.
	if student.PicturePath != "" {
		_ = store.DeleteFile(student.PicturePath)
	}

	if err := database.DB.Model(&student).Update("picture_path", url).Error; err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "students", id, fiber.Map{"picture_path": url})

	return c.JSON(fiber.Map{
		"id":           id,
		"picture_path": url,
	})
}
