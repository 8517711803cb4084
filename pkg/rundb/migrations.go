package rundb

import (
	"strings"

	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log, driver string) []migration.Migrator {
	// sqlite assigns INTEGER PRIMARY KEY automatically, postgres needs a sequence
	pk := "INTEGER PRIMARY KEY"
	if driver == dbh.DriverPostgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx, strings.ReplaceAll(
		`
		CREATE TABLE run(
			id $PK,
			date BIGINT NOT NULL,
			parameters TEXT NOT NULL,
			seconds DOUBLE PRECISION NOT NULL,
			avg_precision DOUBLE PRECISION NOT NULL,
			avg_recall DOUBLE PRECISION NOT NULL,
			avg_f05 DOUBLE PRECISION NOT NULL,
			avg_f10 DOUBLE PRECISION NOT NULL,
			avg_f20 DOUBLE PRECISION NOT NULL,
			total_precision DOUBLE PRECISION NOT NULL,
			total_recall DOUBLE PRECISION NOT NULL,
			total_f05 DOUBLE PRECISION NOT NULL,
			total_f10 DOUBLE PRECISION NOT NULL,
			total_f20 DOUBLE PRECISION NOT NULL,
			iou DOUBLE PRECISION NOT NULL
		);

		CREATE TABLE run_sequence(
			id $PK,
			run_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			frames INT NOT NULL,
			tp INT NOT NULL,
			tn INT NOT NULL,
			fp INT NOT NULL,
			fn INT NOT NULL
		);
		CREATE INDEX idx_run_sequence_run_id ON run_sequence (run_id);
		`, "$PK", pk)))

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		ALTER TABLE run ADD COLUMN score_file TEXT NOT NULL DEFAULT '';
		`))

	return migs
}
