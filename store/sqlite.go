package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"schedule-importer/errors"
	"schedule-importer/models"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS variants (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    source TEXT NOT NULL,
    level INTEGER NOT NULL,
    level_name TEXT NOT NULL,
    name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS periods (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    variant_id INTEGER NOT NULL,
    day INTEGER NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS occupants (
    period_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    assignee_id TEXT NOT NULL,
    assignee_type TEXT NOT NULL,
    PRIMARY KEY(period_id, position)
);
CREATE INDEX IF NOT EXISTS variants_run ON variants(run_id);`

// Run is a persisted import run.
type Run struct {
	ID        string
	CreatedAt time.Time
}

// Source is the persisted output of one input file.
type Source struct {
	Name   string
	Levels []models.LevelVariants
}

// SQLiteStore persists converted schedules in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLiteStore opens a store that must already exist on disk.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", errors.ErrStoreNotFound, path)
		}
		return nil, err
	}
	return NewSQLiteStore(path)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save stores the schedules converted from one source under runID.
func (s *SQLiteStore) Save(ctx context.Context, runID, source string, levels []models.LevelVariants) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO runs (id, created_at) VALUES (?, ?)`,
		runID, time.Now().Unix()); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, lv := range levels {
		for _, v := range lv.Variants {
			res, err := tx.ExecContext(ctx, `INSERT INTO variants (run_id, source, level, level_name, name)
                VALUES (?, ?, ?, ?, ?)`, runID, source, lv.Level, lv.Name, v.Name)
			if err != nil {
				return fmt.Errorf("insert variant %s: %w", v.Name, err)
			}
			variantID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			if err := savePeriods(ctx, tx, variantID, v); err != nil {
				return fmt.Errorf("variant %s: %w", v.Name, err)
			}
		}
	}
	return tx.Commit()
}

func savePeriods(ctx context.Context, tx *sql.Tx, variantID int64, v models.ScheduleVariant) error {
	for d, slot := range v.Days {
		for _, p := range slot.TimePeriods {
			res, err := tx.ExecContext(ctx, `INSERT INTO periods (variant_id, day, start_time, end_time)
                VALUES (?, ?, ?, ?)`, variantID, d, p.StartTime, p.EndTime)
			if err != nil {
				return err
			}
			periodID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for i, o := range p.Occupants {
				if _, err := tx.ExecContext(ctx, `INSERT INTO occupants (period_id, position, assignee_id, assignee_type)
                    VALUES (?, ?, ?, ?)`, periodID, i, o.ID, string(o.Type)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Runs lists stored runs, newest first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Run
	for rows.Next() {
		var r Run
		var ts int64
		if err := rows.Scan(&r.ID, &ts); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(ts, 0)
		res = append(res, r)
	}
	return res, rows.Err()
}

// Load returns the sources stored under runID in the order they were saved.
func (s *SQLiteStore) Load(ctx context.Context, runID string) ([]Source, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT v.id, v.source, v.level, v.level_name, v.name,
            p.id, p.day, p.start_time, p.end_time, o.assignee_id, o.assignee_type
        FROM variants v
        LEFT JOIN periods p ON p.variant_id = v.id
        LEFT JOIN occupants o ON o.period_id = p.id
        WHERE v.run_id = ?
        ORDER BY v.id, p.id, o.position`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var (
		sources       []Source
		lastVariantID int64 = -1
		lastPeriodID  int64 = -1
	)
	for rows.Next() {
		var (
			variantID                int64
			source, levelName, name  string
			level                    int
			periodID, day            sql.NullInt64
			start, end, id, assignee sql.NullString
		)
		if err := rows.Scan(&variantID, &source, &level, &levelName, &name,
			&periodID, &day, &start, &end, &id, &assignee); err != nil {
			return nil, err
		}

		if len(sources) == 0 || sources[len(sources)-1].Name != source {
			sources = append(sources, Source{Name: source})
		}
		src := &sources[len(sources)-1]
		if len(src.Levels) == 0 || src.Levels[len(src.Levels)-1].Level != level {
			src.Levels = append(src.Levels, models.LevelVariants{Level: level, Name: levelName})
		}
		lv := &src.Levels[len(src.Levels)-1]
		if variantID != lastVariantID {
			lv.Variants = append(lv.Variants, models.ScheduleVariant{Name: name})
			lastVariantID = variantID
		}
		if !periodID.Valid {
			continue
		}
		v := &lv.Variants[len(lv.Variants)-1]
		slot := &v.Days[day.Int64]
		if periodID.Int64 != lastPeriodID {
			slot.TimePeriods = append(slot.TimePeriods, models.TimePeriod{StartTime: start.String, EndTime: end.String})
			lastPeriodID = periodID.Int64
		}
		if id.Valid {
			p := &slot.TimePeriods[len(slot.TimePeriods)-1]
			p.Occupants = append(p.Occupants, models.Occupant{ID: id.String, Type: models.AssigneeType(assignee.String)})
		}
	}
	return sources, rows.Err()
}

// Sink saves every converted source under a single run id.
type Sink struct {
	Store *SQLiteStore
	RunID string
}

// Write implements the importer sink contract.
func (s Sink) Write(ctx context.Context, name string, levels []models.LevelVariants) error {
	return s.Store.Save(ctx, s.RunID, name, levels)
}
