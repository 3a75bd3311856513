package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
)

// DefaultNotifyChannel is the LISTEN channel the postgres change feed uses
// when none is configured.
const DefaultNotifyChannel = "sketches_changes"

const notifyVersion = 2

// notifyMigration installs a statement-level trigger that calls pg_notify
// after every INSERT, UPDATE or DELETE on sketches, whoever the writer is.
// The payload decodes as a feed event.
func notifyMigration(channel string) *goose.Migration {
	up := func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
CREATE OR REPLACE FUNCTION notify_sketches_changed() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify(%s, json_build_object(
		'op', CASE TG_OP WHEN 'DELETE' THEN 'DELETE' ELSE 'UPSERT' END,
		'at', now()
	)::text);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS sketches_changed ON sketches;
CREATE TRIGGER sketches_changed
	AFTER INSERT OR UPDATE OR DELETE ON sketches
	FOR EACH STATEMENT EXECUTE FUNCTION notify_sketches_changed();
`, quoteLiteral(channel)))
		return err
	}
	down := func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
DROP TRIGGER IF EXISTS sketches_changed ON sketches;
DROP FUNCTION IF EXISTS notify_sketches_changed();
`)
		return err
	}
	return goose.NewGoMigration(notifyVersion, &goose.GoFunc{RunTx: up}, &goose.GoFunc{RunTx: down})
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
