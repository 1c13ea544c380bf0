package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dojoadmin_go/models"
)

func modernCols() map[string]bool {
	return map[string]bool{
		"id": true, "first_name": true, "last_name": true,
		"phone": true, "email": true, "address": true, "age": true,
		"program": true, "join_date": true, "renewal_date": true,
		"parents_name": true, "parent_phone": true, "referral_source": true,
		"picture_path": true, "notes": true, "status": true,
	}
}

const today = "2024-06-01"

func TestStudentCreateDefaults(t *testing.T) {
	rec, err := Student(Record{"name": "Aiko Tanaka"}, modernCols(), today, true)
	require.NoError(t, err)

	assert.Equal(t, "Aiko", rec["first_name"])
	assert.Equal(t, "Tanaka", rec["last_name"])
	assert.Equal(t, today, rec["join_date"])
	assert.Equal(t, "2024-06-29", rec["renewal_date"])
	assert.Equal(t, models.StudentStatusActive, rec["status"])
}

func TestStudentCombinedNameStripsHonorific(t *testing.T) {
	rec, err := Student(Record{"name": "Mr. John Q. Public"}, modernCols(), today, true)
	require.NoError(t, err)

	assert.Equal(t, "John", rec["first_name"])
	assert.Equal(t, "Q. Public", rec["last_name"])
}

func TestStudentExplicitNamesWin(t *testing.T) {
	rec, err := Student(Record{
		"first_name": "Maria",
		"last_name":  "Santos",
		"name":       "Someone Else",
	}, modernCols(), today, true)
	require.NoError(t, err)

	assert.Equal(t, "Maria", rec["first_name"])
	assert.Equal(t, "Santos", rec["last_name"])
}

func TestStudentCreateRequiresName(t *testing.T) {
	_, err := Student(Record{"phone": "555-0101"}, modernCols(), today, true)
	require.Error(t, err)
	assert.True(t, models.IsClientError(err))
}

func TestStudentRenewalFollowsExplicitJoinDate(t *testing.T) {
	rec, err := Student(Record{
		"name":       "Kenji Watanabe",
		"start_date": "2024-01-15",
	}, modernCols(), today, true)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-15", rec["join_date"])
	assert.Equal(t, "2024-02-12", rec["renewal_date"])
}

func TestStudentNumericScalarsKeepDigits(t *testing.T) {
	// JSON numbers decode to float64 and must not come out in
	// exponent notation.
	rec, err := Student(Record{"name": "Aiko Tanaka", "phone": float64(5550101)}, modernCols(), today, true)
	require.NoError(t, err)
	assert.Equal(t, "5550101", rec["phone"])
}

func TestStudentRejectsMalformedDates(t *testing.T) {
	for _, bad := range []string{"15/01/2024", "2023-02-29", "soon"} {
		_, err := Student(Record{"name": "Aiko Tanaka", "join_date": bad}, modernCols(), today, true)
		require.Error(t, err, bad)
		assert.True(t, models.IsClientError(err))
	}

	_, err := Student(Record{"renewal_date": "2024-13-01"}, modernCols(), today, false)
	require.Error(t, err)
	assert.True(t, models.IsClientError(err))
}

func TestStudentUpdateTouchesOnlyMentionedFields(t *testing.T) {
	rec, err := Student(Record{"phone": "555-0199"}, modernCols(), today, false)
	require.NoError(t, err)

	assert.Equal(t, Record{"phone": "555-0199"}, rec)
}

func TestStudentAgeCoercion(t *testing.T) {
	rec, err := Student(Record{"name": "Kid Example", "age": "12"}, modernCols(), today, true)
	require.NoError(t, err)
	age := rec["age"].(*int)
	require.NotNil(t, age)
	assert.Equal(t, 12, *age)

	rec, err = Student(Record{"name": "Kid Example", "age": ""}, modernCols(), today, true)
	require.NoError(t, err)
	assert.Nil(t, rec["age"].(*int))

	_, err = Student(Record{"name": "Kid Example", "age": "young"}, modernCols(), today, true)
	require.Error(t, err)
}

func TestStudentLegacyFlagsFoldIntoStatus(t *testing.T) {
	rec, err := Student(Record{"name": "Old Member", "is_legacy": 1}, modernCols(), today, true)
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusArchived, rec["status"])

	rec, err = Student(Record{"name": "Old Member", "is_legacy": 1, "status": "active"}, modernCols(), today, true)
	require.NoError(t, err)
	assert.Equal(t, "active", rec["status"])
}

func TestStudentPhotoAlias(t *testing.T) {
	rec, err := Student(Record{"name": "Aiko Tanaka", "photo": "/uploads/a.jpg"}, modernCols(), today, true)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.jpg", rec["picture_path"])
	_, ok := rec["photo"]
	assert.False(t, ok)
}

func TestStudentRestrictsToLiveColumns(t *testing.T) {
	cols := modernCols()
	delete(cols, "renewal_date")
	delete(cols, "parents_name")

	rec, err := Student(Record{
		"name":         "Aiko Tanaka",
		"parents_name": "Yuki Tanaka",
	}, cols, today, true)
	require.NoError(t, err)

	_, ok := rec["renewal_date"]
	assert.False(t, ok, "renewal_date must be dropped for tables without it")
	_, ok = rec["parents_name"]
	assert.False(t, ok)
}

func TestStudentSynthesizesCombinedName(t *testing.T) {
	// oldest schema shape: single name column only
	cols := map[string]bool{"id": true, "name": true, "phone": true, "status": true}

	rec, err := Student(Record{"first_name": "Hana", "last_name": "Kobayashi"}, cols, today, true)
	require.NoError(t, err)

	assert.Equal(t, "Hana Kobayashi", rec["name"])
	_, ok := rec["first_name"]
	assert.False(t, ok)
}

func TestPaymentCreateDefaults(t *testing.T) {
	cols := map[string]bool{
		"id": true, "student_id": true, "amount": true, "date": true,
		"method": true, "taxable": true, "note": true, "receipt_no": true,
	}

	rec, err := Payment(Record{}, cols, today, true)
	require.NoError(t, err)

	amt := rec["amount"].(decimal.Decimal)
	assert.True(t, amt.IsZero())
	assert.Equal(t, today, rec["date"])
	assert.Equal(t, false, rec["taxable"])
	_, ok := rec["student_id"]
	assert.False(t, ok, "absent student_id must stay absent")
}

func TestAttendanceRequiresStudent(t *testing.T) {
	cols := map[string]bool{"id": true, "student_id": true, "date": true, "present": true}

	_, err := Attendance(Record{"date": today}, cols, today, true)
	require.Error(t, err)
	assert.True(t, models.IsClientError(err))

	rec, err := Attendance(Record{"student_id": 3}, cols, today, true)
	require.NoError(t, err)
	assert.Equal(t, 3, rec["student_id"])
	assert.Equal(t, today, rec["date"])
	assert.Equal(t, false, rec["present"])
}

func TestLeadCreateDefaults(t *testing.T) {
	cols := map[string]bool{
		"id": true, "name": true, "phone": true, "email": true,
		"interested_program": true, "source": true, "status": true, "notes": true,
	}

	_, err := Lead(Record{"phone": "555"}, cols, today, true)
	require.Error(t, err)

	rec, err := Lead(Record{"name": "Walk In"}, cols, today, true)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusNew, rec["status"])
}

func TestLedgerDatesMustParse(t *testing.T) {
	payCols := map[string]bool{
		"id": true, "student_id": true, "amount": true, "date": true,
		"method": true, "taxable": true, "note": true, "receipt_no": true,
	}
	_, err := Payment(Record{"date": "01-06-2024"}, payCols, today, true)
	require.Error(t, err)
	assert.True(t, models.IsClientError(err))

	attCols := map[string]bool{"id": true, "student_id": true, "date": true, "present": true}
	_, err = Attendance(Record{"student_id": 1, "date": "yesterday"}, attCols, today, true)
	require.Error(t, err)
	assert.True(t, models.IsClientError(err))

	leadCols := map[string]bool{"id": true, "name": true, "status": true, "follow_up_date": true}
	_, err = Lead(Record{"name": "Walk In", "follow_up_date": "2024-02-30"}, leadCols, today, true)
	require.Error(t, err)
	assert.True(t, models.IsClientError(err))
}
