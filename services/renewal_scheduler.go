package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"dojoadmin_go/models"
	"dojoadmin_go/normalize"
)

// RenewalScheduler raises a notification when an active student's
// membership renewal is due within the lookahead window or already past.
type RenewalScheduler struct {
	db   *gorm.DB
	cron *cron.Cron

	// LookaheadDays controls how far ahead of renewal_date the reminder
	// fires.
	LookaheadDays int

	Now func() time.Time
}

func NewRenewalScheduler(db *gorm.DB) *RenewalScheduler {
	return &RenewalScheduler{
		db:            db,
		cron:          cron.New(),
		LookaheadDays: 7,
		Now:           time.Now,
	}
}

// Start schedules the daily check and runs one immediately so a restart
// never skips a day.
func (rs *RenewalScheduler) Start() {
	if _, err := rs.cron.AddFunc("@daily", rs.CheckRenewals); err != nil {
		logrus.WithError(err).Error("failed to schedule renewal check")
		return
	}
	rs.cron.Start()
	go rs.CheckRenewals()
	logrus.Info("Renewal scheduler started")
}

// Stop halts the cron loop.
func (rs *RenewalScheduler) Stop() {
	rs.cron.Stop()
}

// CheckRenewals finds due renewals and notifies every owner/admin user,
// at most once per student and renewal date.
func (rs *RenewalScheduler) CheckRenewals() {
	today := rs.Now().Format(normalize.DateFormat)
	cutoff := rs.Now().AddDate(0, 0, rs.LookaheadDays).Format(normalize.DateFormat)

	var students []models.Student
	err := rs.db.Where("status = ? AND renewal_date <> '' AND renewal_date <= ?",
		models.StudentStatusActive, cutoff).
		Find(&students).Error
	if err != nil {
		logrus.WithError(err).Error("renewal check query failed")
		return
	}
	if len(students) == 0 {
		return
	}

	var admins []models.User
	if err := rs.db.Where("role IN ? AND status = ?", []string{"owner", "admin"}, "active").
		Find(&admins).Error; err != nil {
		logrus.WithError(err).Error("renewal check: admin lookup failed")
		return
	}

	for _, s := range students {
		title := "Membership renewal due"
		kind := "warning"
		if s.RenewalDate < today {
			title = "Membership renewal overdue"
			kind = "error"
		}
		message := fmt.Sprintf("%s: renewal due %s", s.FullName(), s.RenewalDate)

		for _, admin := range admins {
			if rs.alreadyNotified(admin.ID, s.ID, message) {
				continue
			}
			sid := s.ID
			n := models.Notification{
				UserID:    admin.ID,
				StudentID: &sid,
				Title:     title,
				Message:   message,
				Type:      kind,
			}
			if err := rs.db.Create(&n).Error; err != nil {
				logrus.WithError(err).Errorf("failed to create renewal notification for student %d", s.ID)
			}
		}
	}
}

// alreadyNotified dedups on an identical pending notification, so a daily
// run doesn't pile up copies of the same reminder.
func (rs *RenewalScheduler) alreadyNotified(userID, studentID uint, message string) bool {
	var count int64
	err := rs.db.Model(&models.Notification{}).
		Where("user_id = ? AND student_id = ? AND message = ? AND read = ?",
			userID, studentID, message, false).
		Count(&count).Error
	if err != nil {
		return false
	}
	return count > 0
}
