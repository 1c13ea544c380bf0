package routes

import (
	"github.com/gofiber/fiber/v2"

	"dojoadmin_go/config"
	"dojoadmin_go/controllers"
	"dojoadmin_go/middleware"
)

// SetupRoutes wires the HTTP surface
func SetupRoutes(app *fiber.App, cfg *config.Config) {
	authController := &controllers.AuthController{}
	studentController := &controllers.StudentController{}
	leadController := &controllers.LeadController{}
	paymentController := &controllers.PaymentController{}
	expenseController := &controllers.ExpenseController{}
	attendanceController := &controllers.AttendanceController{}
	accountingController := &controllers.AccountingController{}
	notificationController := &controllers.NotificationController{}
	adminController := &controllers.AdminController{}
	healthController := &controllers.HealthController{}

	app.Get("/health", healthController.Check)

	app.Static("/uploads", cfg.UploadsDir)
	app.Static("/", "./public")

	api := app.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)

	// Protected routes
	protected := api.Group("", middleware.JWTMiddleware())
	protected.Use(middleware.LogActivityMiddleware())

	authProtected := protected.Group("/auth")
	authProtected.Get("/profile", authController.GetProfile)
	authProtected.Post("/change-password", authController.ChangePassword)
	authProtected.Post("/register", middleware.RequireOwnerOrAdmin(), authController.Register)

	students := protected.Group("/students")
	students.Get("/", studentController.GetStudents)
	students.Post("/", studentController.CreateStudent)
	students.Get("/:id", studentController.GetStudent)
	students.Put("/:id", studentController.UpdateStudent)
	students.Delete("/:id", studentController.DeleteStudent)
	students.Post("/:id/archive", studentController.ArchiveStudent)
	students.Post("/:id/restore", studentController.RestoreStudent)
	students.Post("/:id/photo", studentController.UploadPhoto)

	leads := protected.Group("/leads")
	leads.Get("/", leadController.GetLeads)
	leads.Post("/", leadController.CreateLead)
	leads.Get("/:id", leadController.GetLead)
	leads.Put("/:id", leadController.UpdateLead)
	leads.Delete("/:id", leadController.DeleteLead)
	leads.Post("/:id/convert", leadController.ConvertLead)

	payments := protected.Group("/payments")
	payments.Get("/", paymentController.GetPayments)
	payments.Post("/", paymentController.CreatePayment)
	payments.Put("/:id", paymentController.UpdatePayment)
	payments.Delete("/:id", paymentController.DeletePayment)

	expenses := protected.Group("/expenses")
	expenses.Get("/", expenseController.GetExpenses)
	expenses.Post("/", expenseController.CreateExpense)
	expenses.Put("/:id", expenseController.UpdateExpense)
	expenses.Delete("/:id", expenseController.DeleteExpense)

	attendance := protected.Group("/attendance")
	attendance.Get("/", attendanceController.GetAttendance)
	attendance.Post("/", attendanceController.CreateAttendance)
	attendance.Put("/:id", attendanceController.UpdateAttendance)
	attendance.Delete("/:id", attendanceController.DeleteAttendance)

	accounting := protected.Group("/accounting")
	accounting.Get("/summary", accountingController.GetSummary)
	accounting.Get("/export", accountingController.ExportXLSX)

	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.GetUnreadCount)
	notifications.Put("/:id/read", notificationController.MarkAsRead)
	notifications.Put("/read-all", notificationController.MarkAllAsRead)

	admin := protected.Group("/admin", middleware.RequireOwnerOrAdmin())
	admin.Get("/export", adminController.ExportData)
	admin.Post("/import", adminController.ImportData)
	admin.Get("/users", adminController.GetUsers)
	admin.Put("/users/:id", adminController.UpdateUser)
	admin.Get("/logs", adminController.GetLogs)
	admin.Post("/logs/flush", adminController.FlushLogs)
}
