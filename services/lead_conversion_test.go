package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dojoadmin_go/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// one connection so the in-memory database is shared
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.Lead{}))
	return db
}

func newTestConverter(db *gorm.DB) *LeadConverter {
	lc := NewLeadConverter(db)
	lc.Now = func() time.Time {
		return time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	}
	return lc
}

func TestConvertCreatesStudent(t *testing.T) {
	db := newTestDB(t)
	lead := models.Lead{
		Name:              "Mr. Kenji Watanabe",
		Phone:             "555-0101",
		Email:             "kenji@example.com",
		InterestedProgram: "Karate",
		Source:            "referral",
		Status:            models.LeadStatusNew,
	}
	require.NoError(t, db.Create(&lead).Error)

	result, err := newTestConverter(db).Convert(lead.ID)
	require.NoError(t, err)
	assert.True(t, result.Created)

	var student models.Student
	require.NoError(t, db.First(&student, result.StudentID).Error)
	assert.Equal(t, "Kenji", student.FirstName)
	assert.Equal(t, "Watanabe", student.LastName)
	assert.Equal(t, "Karate", student.Program)
	assert.Equal(t, "2024-06-01", student.JoinDate)
	assert.Equal(t, "2024-06-29", student.RenewalDate)
	assert.Equal(t, models.StudentStatusActive, student.Status)
	assert.Contains(t, student.Notes, "Converted from lead")

	var reloaded models.Lead
	require.NoError(t, db.First(&reloaded, lead.ID).Error)
	assert.Equal(t, models.LeadStatusConverted, reloaded.Status, "lead must be kept with converted status")
}

func TestConvertMatchesByEmailAndFillsOnlyEmptyFields(t *testing.T) {
	db := newTestDB(t)
	student := models.Student{
		FirstName: "Aiko",
		LastName:  "Tanaka",
		Email:     "Aiko@Example.com",
		Program:   "Judo",
		Status:    models.StudentStatusArchived,
	}
	require.NoError(t, db.Create(&student).Error)

	lead := models.Lead{
		Name:              "Aiko Tanaka",
		Phone:             "555-0202",
		Email:             "aiko@example.com",
		InterestedProgram: "Karate",
		Status:            models.LeadStatusOpen,
	}
	require.NoError(t, db.Create(&lead).Error)

	result, err := newTestConverter(db).Convert(lead.ID)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, student.ID, result.StudentID)

	var updated models.Student
	require.NoError(t, db.First(&updated, student.ID).Error)
	assert.Equal(t, "555-0202", updated.Phone, "empty phone must be filled")
	assert.Equal(t, "Judo", updated.Program, "populated program must not be overwritten")
	assert.Equal(t, models.StudentStatusActive, updated.Status, "matched student must be reactivated")
}

func TestConvertMatchesByNormalizedPhone(t *testing.T) {
	db := newTestDB(t)
	student := models.Student{FirstName: "Hana", LastName: "Kobayashi", Phone: "555 01 03"}
	require.NoError(t, db.Create(&student).Error)

	lead := models.Lead{Name: "Hana K", Phone: "555-0103", Status: models.LeadStatusNew}
	require.NoError(t, db.Create(&lead).Error)

	result, err := newTestConverter(db).Convert(lead.ID)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, student.ID, result.StudentID)
}

func TestConvertUnknownLead(t *testing.T) {
	db := newTestDB(t)

	_, err := newTestConverter(db).Convert(999)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))

	var count int64
	db.Model(&models.Student{}).Count(&count)
	assert.Zero(t, count, "failed conversion must not write students")
}

func TestConvertTwiceConflicts(t *testing.T) {
	db := newTestDB(t)
	lead := models.Lead{Name: "Walk In", Phone: "555-0404", Status: models.LeadStatusNew}
	require.NoError(t, db.Create(&lead).Error)

	converter := newTestConverter(db)
	_, err := converter.Convert(lead.ID)
	require.NoError(t, err)

	_, err = converter.Convert(lead.ID)
	require.ErrorIs(t, err, models.ErrConflict)

	var count int64
	db.Model(&models.Student{}).Count(&count)
	assert.Equal(t, int64(1), count, "second conversion must not add a student")
}

func TestConvertLeadWithoutUsableName(t *testing.T) {
	db := newTestDB(t)
	lead := models.Lead{Name: "   ", Status: models.LeadStatusNew}
	require.NoError(t, db.Create(&lead).Error)

	_, err := newTestConverter(db).Convert(lead.ID)
	require.Error(t, err)
	assert.True(t, models.IsClientError(err))

	var reloaded models.Lead
	require.NoError(t, db.First(&reloaded, lead.ID).Error)
	assert.Equal(t, models.LeadStatusNew, reloaded.Status, "failed conversion must not flip the lead")
}
