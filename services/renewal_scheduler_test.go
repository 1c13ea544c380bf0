package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"dojoadmin_go/models"
)

func newSchedulerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Notification{}))
	return db
}

func newTestScheduler(db *gorm.DB) *RenewalScheduler {
	rs := NewRenewalScheduler(db)
	rs.Now = func() time.Time {
		return time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	}
	return rs
}

func seedAdmin(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	admin := models.User{Username: "owner", Password: "x", Role: "owner", Status: "active"}
	require.NoError(t, db.Create(&admin).Error)
	return admin
}

func TestCheckRenewalsNotifiesDueAndOverdue(t *testing.T) {
	db := newSchedulerDB(t)
	admin := seedAdmin(t, db)

	students := []models.Student{
		{FirstName: "Due", LastName: "Soon", RenewalDate: "2024-06-15", Status: models.StudentStatusActive},
		{FirstName: "Over", LastName: "Due", RenewalDate: "2024-06-01", Status: models.StudentStatusActive},
		{FirstName: "Far", LastName: "Out", RenewalDate: "2024-08-01", Status: models.StudentStatusActive},
		{FirstName: "Gone", LastName: "Already", RenewalDate: "2024-06-01", Status: models.StudentStatusArchived},
	}
	require.NoError(t, db.Create(&students).Error)

	newTestScheduler(db).CheckRenewals()

	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", admin.ID).Order("student_id").Find(&notifications).Error)
	require.Len(t, notifications, 2)

	assert.Equal(t, "Membership renewal due", notifications[0].Title)
	assert.Equal(t, "warning", notifications[0].Type)
	assert.Equal(t, "Membership renewal overdue", notifications[1].Title)
	assert.Equal(t, "error", notifications[1].Type)
}

func TestCheckRenewalsDoesNotRepeatUnread(t *testing.T) {
	db := newSchedulerDB(t)
	admin := seedAdmin(t, db)

	student := models.Student{FirstName: "Due", LastName: "Soon", RenewalDate: "2024-06-12", Status: models.StudentStatusActive}
	require.NoError(t, db.Create(&student).Error)

	rs := newTestScheduler(db)
	rs.CheckRenewals()
	rs.CheckRenewals()

	var count int64
	db.Model(&models.Notification{}).Where("user_id = ?", admin.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	// once read, the next run may remind again
	db.Model(&models.Notification{}).Where("user_id = ?", admin.ID).Update("read", true)
	rs.CheckRenewals()
	db.Model(&models.Notification{}).Where("user_id = ?", admin.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestCheckRenewalsSkipsInactiveAdmins(t *testing.T) {
	db := newSchedulerDB(t)
	inactive := models.User{Username: "gone", Password: "x", Role: "admin", Status: "inactive"}
	require.NoError(t, db.Create(&inactive).Error)

	student := models.Student{FirstName: "Due", LastName: "Soon", RenewalDate: "2024-06-12", Status: models.StudentStatusActive}
	require.NoError(t, db.Create(&student).Error)

	newTestScheduler(db).CheckRenewals()

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	assert.Zero(t, count)
}
