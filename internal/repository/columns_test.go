package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/bless-tracker/internal/domain"
)

func TestResidentColumnsCoverEveryAttribute(t *testing.T) {
	seen := map[string]domain.ResidentAttribute{}
	for attr := domain.ResidentAttribute(0); attr < domain.ResidentAttributeCount; attr++ {
		column, err := ResidentColumn(attr)
		require.NoError(t, err, "attribute %d has no column", attr)
		prev, dup := seen[column]
		assert.False(t, dup, "column %s mapped by %d and %d", column, prev, attr)
		seen[column] = attr
	}

	_, err := ResidentColumn(domain.ResidentAttributeCount)
	assert.Error(t, err)
	_, err = ResidentColumn(-1)
	assert.Error(t, err)
}

func TestBuildResidentUpdate(t *testing.T) {
	name := "Maria"
	patch := domain.ResidentPatch{Name: &name}

	query, args, err := buildResidentUpdate("r1", patch.Fields())
	require.NoError(t, err)
	assert.Equal(t, "UPDATE residents SET resident_name=$1 WHERE id=$2", query)
	assert.Equal(t, []any{"Maria", "r1"}, args)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	query, args, err = buildResidentUpdate("r2", []domain.FieldValue{
		{Attribute: domain.AttributeLastInteraction, Value: at},
		{Attribute: domain.AttributeBlessStatus, Value: domain.BlessStatusEat},
	})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE residents SET last_interaction=$1, current_bless_status=$2 WHERE id=$3", query)
	assert.Equal(t, []any{at, domain.BlessStatusEat, "r2"}, args)

	_, _, err = buildResidentUpdate("r3", nil)
	assert.Error(t, err)
}
