package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"dojoadmin_go/models"
	"dojoadmin_go/normalize"
)

// LeadConverter turns a lead into a student. The whole conversion runs in
// one transaction: either the student write and the lead status flip both
// land, or neither does.
type LeadConverter struct {
	db *gorm.DB

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// ConversionResult reports what a conversion did.
type ConversionResult struct {
	LeadID    uint            `json:"lead_id"`
	StudentID uint            `json:"student_id"`
	Created   bool            `json:"created"` // false when an existing student was matched
	Student   *models.Student `json:"student,omitempty"`
}

func NewLeadConverter(db *gorm.DB) *LeadConverter {
	return &LeadConverter{db: db, Now: time.Now}
}

// Convert performs the atomic lead conversion:
// look up the lead, match an existing student by email then phone, fill
// only the matched student's empty fields (or create a new student), and
// flip the lead status to converted. The conditional status update
// serializes concurrent conversions of the same lead: the loser sees
// ErrConflict, never a duplicate student. The lead row is kept as the
// audit trail.
func (lc *LeadConverter) Convert(leadID uint) (*ConversionResult, error) {
	var result *ConversionResult

	err := lc.db.Transaction(func(tx *gorm.DB) error {
		var lead models.Lead
		if err := tx.First(&lead, leadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("lead %d: %w", leadID, models.ErrNotFound)
			}
			return fmt.Errorf("lead %d: %w: %v", leadID, models.ErrStorage, err)
		}
		if lead.Status == models.LeadStatusConverted {
			return fmt.Errorf("lead %d already converted: %w", leadID, models.ErrConflict)
		}

		first, last := normalize.SplitName(normalize.StripHonorific(lead.Name))
		if first == "" {
			return &models.ValidationError{Field: "name", Message: fmt.Sprintf("lead %d has no usable name", leadID)}
		}

		student, err := lc.matchStudent(tx, &lead)
		if err != nil {
			return err
		}

		today := lc.Now().Format(normalize.DateFormat)
		audit := fmt.Sprintf("Converted from lead #%d", lead.ID)

		created := false
		if student != nil {
			fillEmptyFields(student, &lead)
			student.Status = models.StudentStatusActive
			student.Notes = appendNote(student.Notes, audit)
			if err := tx.Save(student).Error; err != nil {
				return fmt.Errorf("update student %d: %w: %v", student.ID, models.ErrStorage, err)
			}
		} else {
			renewal, derr := normalize.AddDays(today, normalize.RenewalOffsetDays)
			if derr != nil {
				return derr
			}
			student = &models.Student{
				FirstName:      first,
				LastName:       last,
				Phone:          lead.Phone,
				Email:          lead.Email,
				Program:        lead.InterestedProgram,
				ReferralSource: lead.Source,
				JoinDate:       today,
				RenewalDate:    renewal,
				Status:         models.StudentStatusActive,
				Notes:          audit,
			}
			if err := tx.Create(student).Error; err != nil {
				return fmt.Errorf("create student: %w: %v", models.ErrStorage, err)
			}
			created = true
		}

		// Conditional flip: exactly-once even under a concurrent convert
		// of the same lead.
		res := tx.Model(&models.Lead{}).
			Where("id = ? AND status <> ?", lead.ID, models.LeadStatusConverted).
			Update("status", models.LeadStatusConverted)
		if res.Error != nil {
			return fmt.Errorf("mark lead %d converted: %w: %v", lead.ID, models.ErrStorage, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("lead %d already converted: %w", lead.ID, models.ErrConflict)
		}

		result = &ConversionResult{
			LeadID:    lead.ID,
			StudentID: student.ID,
			Created:   created,
			Student:   student,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// matchStudent looks for an existing student: exact case-insensitive
// email first, then phone with whitespace and dashes stripped. First
// match wins; nil means no match.
func (lc *LeadConverter) matchStudent(tx *gorm.DB, lead *models.Lead) (*models.Student, error) {
	var student models.Student

	if email := strings.TrimSpace(lead.Email); email != "" {
		err := tx.Where("email <> '' AND lower(email) = lower(?)", email).
			Order("id").First(&student).Error
		if err == nil {
			return &student, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("match by email: %w: %v", models.ErrStorage, err)
		}
	}

	if phone := stripPhone(lead.Phone); phone != "" {
		err := tx.Where("phone <> '' AND replace(replace(replace(phone, ' ', ''), '-', ''), char(9), '') = ?", phone).
			Order("id").First(&student).Error
		if err == nil {
			return &student, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("match by phone: %w: %v", models.ErrStorage, err)
		}
	}

	return nil, nil
}

// fillEmptyFields copies lead contact info onto the student, only where
// the student has nothing. Populated fields are never overwritten.
func fillEmptyFields(s *models.Student, l *models.Lead) {
	if s.Phone == "" {
		s.Phone = l.Phone
	}
	if s.Email == "" {
		s.Email = l.Email
	}
	if s.Program == "" {
		s.Program = l.InterestedProgram
	}
	if s.ReferralSource == "" {
		s.ReferralSource = l.Source
	}
}

func appendNote(notes, note string) string {
	if strings.TrimSpace(notes) == "" {
		return note
	}
	return notes + "\n" + note
}

func stripPhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-':
			return -1
		}
		return r
	}, phone)
}
