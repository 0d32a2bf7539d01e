package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aranzadi/pictotea/core"
)

// getExec resolves the executor for a repository call: the service passes its
// open transaction as an override, otherwise the repository falls back to its
// own handle. Overrides started by database.DB are *sqlx.Tx values and thus
// sqlx.ExtContext.
func getExec(db sqlx.ExtContext, svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if e, ok := svcExec[0].(sqlx.ExtContext); ok {
			return e
		}
	}
	return db
}

// trapNoRowsErr maps psql "no rows" to the domain's not-found sentinel.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
