package postgres

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewPostgresJobStore(t *testing.T) {
	t.Run("valid_db", func(t *testing.T) {
		jobStore := NewPostgresJobStore(&sql.DB{}, nil)
		assert.NotNil(t, jobStore)
		assert.NotNil(t, jobStore.db)
		assert.NotNil(t, jobStore.logger)
	})

	t.Run("nil_db_panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewPostgresJobStore(nil, nil)
		})
	})
}

func TestNullableUUID(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, uuid.NullUUID{UUID: id, Valid: true}, nullableUUID(id))
	assert.Equal(t, uuid.NullUUID{}, nullableUUID(uuid.Nil))
}

func TestNullableString(t *testing.T) {
	assert.Equal(t, sql.NullString{String: "quota exhausted", Valid: true}, nullableString("quota exhausted"))
	assert.Equal(t, sql.NullString{}, nullableString(""))
}

func TestNullableJSON(t *testing.T) {
	assert.Nil(t, nullableJSON(nil))
	assert.Nil(t, nullableJSON(json.RawMessage{}))

	raw := json.RawMessage(`{"style":"oil painting"}`)
	assert.Equal(t, []byte(raw), nullableJSON(raw))
}
