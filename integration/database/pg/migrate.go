package pg

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/booleancoercion/andromeda/integration/database/pg/migrations"
)

// Migrate brings the auth schema up to date using the embedded goose
// migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
