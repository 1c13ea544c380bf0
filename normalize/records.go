package normalize

import (
	"github.com/shopspring/decimal"

	"dojoadmin_go/models"
)

// Payment normalizes a payment payload. Create defaults: date = today,
// amount = 0 (the row must participate in totals even when the amount
// arrives later). student_id may be absent, the payment then has no
// student attached.
func Payment(raw Record, cols map[string]bool, now string, create bool) (Record, error) {
	out := Record{}

	if v, present := raw["student_id"]; present {
		id, err := CoerceInt(v)
		if err != nil {
			return nil, &models.ValidationError{Field: "student_id", Message: err.Error()}
		}
		out["student_id"] = id
	}

	if v, present := raw["amount"]; present {
		amt, ok, err := CoerceAmount(v)
		if err != nil {
			return nil, err
		}
		if ok {
			out["amount"] = amt
		} else if create {
			out["amount"] = decimal.Zero
		}
	} else if create {
		out["amount"] = decimal.Zero
	}

	if v, ok := firstString(raw, "date"); ok {
		if err := validDate("date", v); err != nil {
			return nil, err
		}
		out["date"] = v
	} else if create {
		out["date"] = now
	}

	for _, k := range []string{"method", "note", "receipt_no"} {
		if v, ok := firstString(raw, k); ok {
			out[k] = v
		}
	}

	if v, present := raw["taxable"]; present || create {
		out["taxable"] = CoerceBool(v)
	}

	return restrict(out, cols), nil
}

// Expense normalizes an expense payload with the same defaulting rules as
// Payment.
func Expense(raw Record, cols map[string]bool, now string, create bool) (Record, error) {
	out := Record{}

	if v, present := raw["amount"]; present {
		amt, ok, err := CoerceAmount(v)
		if err != nil {
			return nil, err
		}
		if ok {
			out["amount"] = amt
		} else if create {
			out["amount"] = decimal.Zero
		}
	} else if create {
		out["amount"] = decimal.Zero
	}

	if v, ok := firstString(raw, "date"); ok {
		if err := validDate("date", v); err != nil {
			return nil, err
		}
		out["date"] = v
	} else if create {
		out["date"] = now
	}

	for _, k := range []string{"vendor", "category", "note"} {
		if v, ok := firstString(raw, k); ok {
			out[k] = v
		}
	}

	if v, present := raw["taxable"]; present || create {
		out["taxable"] = CoerceBool(v)
	}

	return restrict(out, cols), nil
}

// Attendance normalizes an attendance payload. student_id is required:
// attendance is a strong reference.
func Attendance(raw Record, cols map[string]bool, now string, create bool) (Record, error) {
	out := Record{}

	if v, present := raw["student_id"]; present {
		id, err := CoerceInt(v)
		if err != nil || id == nil {
			return nil, &models.ValidationError{Field: "student_id", Message: "student_id is required"}
		}
		out["student_id"] = *id
	} else if create {
		return nil, &models.ValidationError{Field: "student_id", Message: "student_id is required"}
	}

	if v, ok := firstString(raw, "date"); ok {
		if err := validDate("date", v); err != nil {
			return nil, err
		}
		out["date"] = v
	} else if create {
		out["date"] = now
	}

	if v, present := raw["present"]; present || create {
		out["present"] = CoerceBool(v)
	}

	return restrict(out, cols), nil
}

// Lead normalizes a lead payload. Name is the only required field on
// create; status defaults to new.
func Lead(raw Record, cols map[string]bool, now string, create bool) (Record, error) {
	out := Record{}

	name, hasName := firstString(raw, "name")
	if create && !hasName {
		return nil, &models.ValidationError{Field: "name", Message: "name is required"}
	}
	if hasName {
		out["name"] = name
	}

	for _, k := range []string{"phone", "email", "interested_program", "source", "notes", "status"} {
		if v, ok := firstString(raw, k); ok {
			out[k] = v
		}
	}
	if v, ok := firstString(raw, "follow_up_date"); ok {
		if err := validDate("follow_up_date", v); err != nil {
			return nil, err
		}
		out["follow_up_date"] = v
	}
	if create {
		if _, ok := out["status"]; !ok {
			out["status"] = models.LeadStatusNew
		}
	}

	return restrict(out, cols), nil
}
