package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/bless-tracker/internal/domain"
)

// residentColumns maps every patchable attribute to its residents column.
// Sized by ResidentAttributeCount so a new attribute without a column
// shows up as an empty entry in tests rather than a silent skip.
var residentColumns = [domain.ResidentAttributeCount]string{
	domain.AttributeName:            "resident_name",
	domain.AttributeAddress:         "address",
	domain.AttributePrayerRequests:  "prayer_requests",
	domain.AttributeBlessStatus:     "current_bless_status",
	domain.AttributeLastInteraction: "last_interaction",
}

// ResidentColumn returns the remote column for attr.
func ResidentColumn(attr domain.ResidentAttribute) (string, error) {
	if attr < 0 || attr >= domain.ResidentAttributeCount || residentColumns[attr] == "" {
		return "", fmt.Errorf("no column for resident attribute %d", attr)
	}
	return residentColumns[attr], nil
}

// buildResidentUpdate renders a partial UPDATE for the given fields.
func buildResidentUpdate(id string, fields []domain.FieldValue) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("no fields to update")
	}
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, field := range fields {
		column, err := ResidentColumn(field.Attribute)
		if err != nil {
			return "", nil, err
		}
		args = append(args, field.Value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE residents SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))
	return query, args, nil
}
