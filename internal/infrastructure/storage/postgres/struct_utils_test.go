package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/journal"
)

func TestColumns_EmbeddedEntity(t *testing.T) {
	cols := Columns[accounting.Account]()

	assert.Equal(t, []string{
		"id", "enterprise_id", "classe_id", "class_code", "numero", "nom", "is_active",
	}, cols)
}

func TestColumns_SkipsIgnoredFields(t *testing.T) {
	cols := Columns[journal.Journal]()

	assert.Contains(t, cols, "libelle")
	assert.Contains(t, cols, "user_id")
	assert.Contains(t, cols, "created_at")
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "Lines")
}

func TestColumnValues_TrackedFields(t *testing.T) {
	now := time.Now().UTC()
	user := id.New()
	j := journal.Journal{
		BaseEntity: entity.NewBaseEntity(),
		Label:      "Vente CMD-01",
		Kind:       journal.KindSale,
		Reference:  "CART-1",
		Tracked: entity.Tracked{
			UserID:    &user,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	m := ColumnValues(&j)

	assert.Equal(t, j.ID, m["id"])
	assert.Equal(t, "Vente CMD-01", m["libelle"])
	assert.Equal(t, journal.KindSale, m["type_operation"])
	assert.Equal(t, &user, m["user_id"])
	assert.Equal(t, now, m["created_at"])
	_, hasLines := m["-"]
	assert.False(t, hasLines)
}

func TestColumnValues_ValueAndPointerAgree(t *testing.T) {
	a := accounting.Account{BaseEntity: entity.NewBaseEntity(), Code: "571", Name: "Caisse", IsActive: true}

	byValue := ColumnValues(a)
	assert.Equal(t, ColumnValues(&a), byValue)
	assert.Len(t, byValue, len(Columns[accounting.Account]()))
	assert.Equal(t, a.ID, byValue["id"])
	assert.Equal(t, "571", byValue["numero"])
}

func TestColumnValues_NonStruct(t *testing.T) {
	assert.Nil(t, ColumnValues(42))
}
