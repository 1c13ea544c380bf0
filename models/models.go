package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch s := value.(type) {
	case []byte:
		*j = append((*j)[0:0], s...)
	case string:
		*j = append((*j)[0:0], s...)
	}
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Student lifecycle states. Historical installations carried is_legacy /
// legacy / active flags (and one moved rows into an old_students table);
// the migrator folds all of those into this single enum.
const (
	StudentStatusActive   = "active"
	StudentStatusArchived = "archived"
)

// Lead lifecycle states.
const (
	LeadStatusNew       = "new"
	LeadStatusOpen      = "open"
	LeadStatusConverted = "converted"
)

// User model for staff accounts. Replaces the old shared-admin-token guard.
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255"`
	Role     string `json:"role" gorm:"size:50;not null;default:'staff'"` // owner, admin, staff
	Status   string `json:"status" gorm:"size:50;not null;default:'active'"`
}

// Student model. Dates are stored as YYYY-MM-DD strings, matching the
// historical TEXT columns the migrator reconciles.
type Student struct {
	BaseModel
	FirstName      string `json:"first_name" gorm:"size:100"`
	LastName       string `json:"last_name" gorm:"size:100"`
	Phone          string `json:"phone" gorm:"size:30"`
	Email          string `json:"email" gorm:"size:255"`
	Address        string `json:"address" gorm:"size:500"`
	Age            *int   `json:"age"`
	Program        string `json:"program" gorm:"size:100"`
	JoinDate       string `json:"join_date" gorm:"size:10"`
	RenewalDate    string `json:"renewal_date" gorm:"size:10"`
	ParentsName    string `json:"parents_name" gorm:"size:200"`
	ParentPhone    string `json:"parent_phone" gorm:"size:30"`
	ReferralSource string `json:"referral_source" gorm:"size:100"`
	PicturePath    string `json:"picture_path" gorm:"size:500"`
	Notes          string `json:"notes" gorm:"type:text"`
	Status         string `json:"status" gorm:"size:50;not null;default:'active'"`

	// Relationships
	Payments   []Payment    `json:"payments,omitempty" gorm:"foreignKey:StudentID"`
	Attendance []Attendance `json:"attendance,omitempty" gorm:"foreignKey:StudentID"`
}

// Payment model. StudentID is nullable: a payment record outlives the
// student it was taken from.
type Payment struct {
	BaseModel
	StudentID *uint           `json:"student_id" gorm:"index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric;not null;default:0"`
	Date      string          `json:"date" gorm:"size:10;not null"`
	Method    string          `json:"method" gorm:"size:50"`
	Taxable   bool            `json:"taxable" gorm:"not null;default:false"`
	Note      string          `json:"note" gorm:"type:text"`
	ReceiptNo string          `json:"receipt_no" gorm:"size:50"`

	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:SET NULL"`
}

// Expense model
type Expense struct {
	BaseModel
	Vendor   string          `json:"vendor" gorm:"size:200"`
	Amount   decimal.Decimal `json:"amount" gorm:"type:numeric;not null;default:0"`
	Date     string          `json:"date" gorm:"size:10;not null"`
	Taxable  bool            `json:"taxable" gorm:"not null;default:false"`
	Category string          `json:"category" gorm:"size:100"`
	Note     string          `json:"note" gorm:"type:text"`
}

// Lead model. A converted lead is kept, never deleted: status flips to
// "converted" exactly once and the row stays as the audit trail.
type Lead struct {
	BaseModel
	Name              string `json:"name" gorm:"size:200"`
	Phone             string `json:"phone" gorm:"size:30"`
	Email             string `json:"email" gorm:"size:255"`
	InterestedProgram string `json:"interested_program" gorm:"size:100"`
	Source            string `json:"source" gorm:"size:100"`
	FollowUpDate      string `json:"follow_up_date" gorm:"size:10"`
	Status            string `json:"status" gorm:"size:50;not null;default:'new'"`
	Notes             string `json:"notes" gorm:"type:text"`
}

// Attendance model. Strong reference: attendance rows go with the student.
type Attendance struct {
	BaseModel
	StudentID uint   `json:"student_id" gorm:"not null;index"`
	Date      string `json:"date" gorm:"size:10;not null"`
	Present   bool   `json:"present" gorm:"not null;default:true"`

	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`
}

// Notification model. Renewal reminders land here.
type Notification struct {
	BaseModel
	UserID    uint       `json:"user_id" gorm:"index"`
	StudentID *uint      `json:"student_id,omitempty" gorm:"index"`
	Title     string     `json:"title" gorm:"size:255;not null"`
	Message   string     `json:"message" gorm:"type:text;not null"`
	Type      string     `json:"type" gorm:"size:50;not null;default:'info'"` // info, warning, error, success
	Read      bool       `json:"read" gorm:"default:false"`
	ReadAt    *time.Time `json:"read_at"`
}

// FullName joins the split name fields for display.
func (s *Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}
