package normalize

import (
	"strings"

	"dojoadmin_go/models"
)

// studentKeys is every student column any schema version has carried. The
// output record is restricted to the intersection of these and the live
// table's columns.
var studentKeys = []string{
	"first_name", "last_name", "name",
	"phone", "email", "address", "age", "program",
	"join_date", "renewal_date",
	"parents_name", "parent_phone", "referral_source",
	"picture_path", "notes", "status",
}

// Student normalizes a student payload against the live column set.
/// create toggles the insert-time defaults: join_date falls back to now's
// date and renewal_date to join_date + 28 calendar days. Updates touch
// only the fields the payload mentions.
func Student(raw Record, cols map[string]bool, now string, create bool) (Record, error) {
	out := Record{}

	// Reconcile the two name shapes. Explicit first/last win; a legacy
	// combined name is split on the first whitespace run.
	first, hasFirst := firstString(raw, "first_name")
	last, hasLast := firstString(raw, "last_name")
	if (!hasFirst || !hasLast) && has(raw, "name") {
		if full, ok := firstString(raw, "name"); ok {
			f, l := SplitName(StripHonorific(full))
			if !hasFirst {
				first, hasFirst = f, f != ""
			}
			if !hasLast {
				last, hasLast = l, l != ""
			}
		}
	}
	if create && !hasFirst {
		return nil, &models.ValidationError{Field: "name", Message: "provide first_name & last_name (or name)"}
	}
	if hasFirst {
		out["first_name"] = first
	}
	if hasLast {
		out["last_name"] = last
	}

	for _, k := range []string{"phone", "email", "address", "program", "parents_name", "parent_phone", "referral_source", "notes", "status"} {
		if v, ok := firstString(raw, k); ok {
			out[k] = v
		}
	}

	// Historical clients send photo, current ones picture_path.
	if v, ok := firstString(raw, "picture_path", "photo"); ok {
		out["picture_path"] = v
	}

	if v, present := raw["age"]; present {
		age, err := CoerceInt(v)
		if err != nil {
			return nil, &models.ValidationError{Field: "age", Message: err.Error()}
		}
		out["age"] = age
	}

	// join_date/start_date are aliases; join_date wins when both appear.
	joinDate, hasJoin := firstString(raw, "join_date", "start_date")
	renewal, hasRenewal := firstString(raw, "renewal_date")
	if hasJoin {
		if err := validDate("join_date", joinDate); err != nil {
			return nil, err
		}
	}
	if hasRenewal {
		if err := validDate("renewal_date", renewal); err != nil {
			return nil, err
		}
	}
	if create && !hasJoin {
		joinDate, hasJoin = now, true
	}
	if hasJoin {
		out["join_date"] = joinDate
	}
	if create && !hasRenewal && hasJoin {
		r, err := AddDays(joinDate, RenewalOffsetDays)
		if err != nil {
			return nil, &models.ValidationError{Field: "join_date", Message: err.Error()}
		}
		renewal, hasRenewal = r, true
	}
	if hasRenewal {
		out["renewal_date"] = renewal
	}

	// Ancient clients still post lifecycle flags; fold them into status
	// unless the payload set status explicitly.
	if _, ok := out["status"]; !ok {
		if v, present := firstPresent(raw, "is_legacy", "legacy"); present {
			if CoerceBool(v) {
				out["status"] = models.StudentStatusArchived
			} else {
				out["status"] = models.StudentStatusActive
			}
		} else if create {
			out["status"] = models.StudentStatusActive
		}
	}

	return restrict(out, cols), nil
}

// restrict drops keys the live table doesn't have. When the table has
// only a combined name column, first/last are joined back into it.
func restrict(rec Record, cols map[string]bool) Record {
	out := Record{}
	for k, v := range rec {
		if cols[strings.ToLower(k)] {
			out[k] = v
		}
	}
	if !cols["first_name"] && !cols["last_name"] && cols["name"] {
		var parts []string
		if f, ok := rec["first_name"].(string); ok && f != "" {
			parts = append(parts, f)
		}
		if l, ok := rec["last_name"].(string); ok && l != "" {
			parts = append(parts, l)
		}
		if full := strings.Join(parts, " "); full != "" {
			out["name"] = full
		}
	}
	return out
}

func has(raw Record, key string) bool {
	_, ok := raw[key]
	return ok
}

func firstPresent(raw Record, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			return v, true
		}
	}
	return nil, false
}
