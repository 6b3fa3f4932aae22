// Package pg implements the authn.Store interface on PostgreSQL.
//
// It uses database/sql over the pgx stdlib driver and manages its schema
// with embedded goose migrations. MAC key bootstrap relies on
// INSERT ... ON CONFLICT DO NOTHING followed by a re-read, so concurrent
// first boots converge on a single persisted key; invite redemption is a
// single DELETE, making double-spends impossible without extra locking.
//
// # Usage
//
//	db, err := pg.Open(ctx, os.Getenv("DATABASE_URL"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := pg.Migrate(ctx, db); err != nil {
//		log.Fatal(err)
//	}
//
//	svc, err := authn.New(ctx, pg.NewStore(db))
package pg
