package migrations

import _ "embed"

//go:embed 0003_create_attempts.sql
var createAttemptsSQL string

func init() {
	Migrations.MustRegister(exec(createAttemptsSQL), exec(`DROP TABLE IF EXISTS attempts`))
}
