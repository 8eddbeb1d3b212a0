package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.Equal(t, "INSERT", operationFromSQL(`INSERT INTO "measurements" (id) VALUES ($1)`))
	assert.Equal(t, "UNKNOWN", operationFromSQL("PRAGMA foreign_keys"))
}

func TestTableFromSQL(t *testing.T) {
	assert.Equal(t, "measurements", tableFromSQL(`SELECT * FROM measurements WHERE plan_id = $1 ORDER BY measured_at ASC, id ASC`))
	assert.Equal(t, "plan_features", tableFromSQL(`INSERT INTO "plan_features" (id) VALUES ($1)`))
	assert.Equal(t, "control_plans", tableFromSQL("UPDATE control_plans SET active = false"))
	assert.Equal(t, "unknown", tableFromSQL("SELECT 1"))
}
