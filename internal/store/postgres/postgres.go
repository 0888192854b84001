// Package postgres implements store.Store on PostgreSQL using ent's SQL builder.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_scheduler/internal/store"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

var (
	patternColumns   = []string{"id", "owner_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at"}
	exceptionColumns = []string{"id", "recurring_pattern_id", "exception_date", "exception_kind", "start_time", "end_time", "created_at"}
)

type Store struct {
	drv *entsql.Driver
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New(drv *entsql.Driver) *Store {
	return &Store{drv: drv, now: time.Now}
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

// ---------------------------------------------------------------------------
// Recurring patterns
// ---------------------------------------------------------------------------

func (s *Store) ListPatterns(ctx context.Context, ownerID uuid.UUID) ([]store.RecurringPattern, error) {
	query, args := listPatternsQuery(ownerID)

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	out := make([]store.RecurringPattern, 0)
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPattern(ctx context.Context, ownerID, patternID uuid.UUID) (store.RecurringPattern, error) {
	query, args := builder().Select(patternColumns...).
		From(entsql.Table(patternsTable)).
		Where(entsql.And(
			entsql.EQ("id", patternID),
			entsql.EQ("owner_id", ownerID),
		)).
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return store.RecurringPattern{}, fmt.Errorf("query pattern: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return store.RecurringPattern{}, err
		}
		return store.RecurringPattern{}, store.ErrNotFound
	}
	return scanPattern(rows)
}

func (s *Store) InsertPattern(ctx context.Context, p store.RecurringPattern) (store.RecurringPattern, error) {
	if p.ID == uuid.Nil {
		p.ID = store.NewID()
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	query, args := builder().Insert(patternsTable).
		Columns(patternColumns...).
		Values(p.ID, p.OwnerID, int8(p.DayOfWeek), p.StartTime.String(), p.EndTime.String(), p.CreatedAt, p.UpdatedAt).
		Query()

	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return store.RecurringPattern{}, fmt.Errorf("insert pattern: %w", err)
	}
	return p, nil
}

func (s *Store) DeletePattern(ctx context.Context, ownerID, patternID uuid.UUID) (err error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Scope the exception delete to the owner's pattern before touching it.
	query, args := builder().Delete(exceptionsTable).
		Where(entsql.And(
			entsql.EQ("recurring_pattern_id", patternID),
			entsql.Exists(
				builder().Select("id").
					From(entsql.Table(patternsTable)).
					Where(entsql.And(entsql.EQ("id", patternID), entsql.EQ("owner_id", ownerID))),
			),
		)).
		Query()
	if err = tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete pattern exceptions: %w", err)
	}

	query, args = builder().Delete(patternsTable).
		Where(entsql.And(
			entsql.EQ("id", patternID),
			entsql.EQ("owner_id", ownerID),
		)).
		Query()
	var res sql.Result
	if err = tx.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}
	if n == 0 {
		err = store.ErrNotFound
		return err
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Exceptions
// ---------------------------------------------------------------------------

func (s *Store) ListExceptions(ctx context.Context, ownerID uuid.UUID, from, to slottime.Date) ([]store.Exception, error) {
	query, args := listExceptionsQuery(ownerID, from, to)

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query exceptions: %w", err)
	}
	defer rows.Close()

	out := make([]store.Exception, 0)
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) FindException(ctx context.Context, patternID uuid.UUID, date slottime.Date) (store.Exception, error) {
	query, args := builder().Select(exceptionColumns...).
		From(entsql.Table(exceptionsTable)).
		Where(entsql.And(
			entsql.EQ("recurring_pattern_id", patternID),
			entsql.EQ("exception_date", date.String()),
		)).
		OrderBy("created_at").
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return store.Exception{}, fmt.Errorf("query exception: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return store.Exception{}, err
		}
		return store.Exception{}, store.ErrNotFound
	}
	return scanException(rows)
}

func (s *Store) InsertException(ctx context.Context, e store.Exception) (store.Exception, error) {
	if e.ID == uuid.Nil {
		e.ID = store.NewID()
	}
	e.CreatedAt = s.now().UTC()

	query, args := builder().Insert(exceptionsTable).
		Columns(exceptionColumns...).
		Values(e.ID, e.RecurringPatternID, e.ExceptionDate.String(), string(e.Kind),
			nullClock(e.StartTime), nullClock(e.EndTime), e.CreatedAt).
		Query()

	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return store.Exception{}, fmt.Errorf("insert exception: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateException(ctx context.Context, e store.Exception) (store.Exception, error) {
	query, args := updateExceptionQuery(e)

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return store.Exception{}, fmt.Errorf("update exception: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return store.Exception{}, err
		}
		return store.Exception{}, store.ErrNotFound
	}
	return scanException(rows)
}

func (s *Store) DeleteException(ctx context.Context, exceptionID uuid.UUID) error {
	query, args := builder().Delete(exceptionsTable).
		Where(entsql.EQ("id", exceptionID)).
		Query()

	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("delete exception: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete exception: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteOrphanExceptions(ctx context.Context) (int64, error) {
	query, args := orphanSweepQuery()

	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("delete orphan exceptions: %w", err)
	}
	return res.RowsAffected()
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func listPatternsQuery(ownerID uuid.UUID) (string, []any) {
	return builder().Select(patternColumns...).
		From(entsql.Table(patternsTable)).
		Where(entsql.EQ("owner_id", ownerID)).
		OrderBy("day_of_week", "start_time", "created_at").
		Query()
}

func listExceptionsQuery(ownerID uuid.UUID, from, to slottime.Date) (string, []any) {
	e := builder().Table(exceptionsTable)
	p := builder().Table(patternsTable)

	cols := make([]string, len(exceptionColumns))
	for i, c := range exceptionColumns {
		cols[i] = e.C(c)
	}

	return builder().Select(cols...).
		From(e).
		Join(p).
		On(e.C("recurring_pattern_id"), p.C("id")).
		Where(entsql.And(
			entsql.EQ(p.C("owner_id"), ownerID),
			entsql.GTE(e.C("exception_date"), from.String()),
			entsql.LTE(e.C("exception_date"), to.String()),
		)).
		OrderBy(e.C("created_at")).
		Query()
}

func updateExceptionQuery(e store.Exception) (string, []any) {
	u := builder().Update(exceptionsTable).
		Set("exception_kind", string(e.Kind))
	if e.Kind == store.KindModified {
		u = u.Set("start_time", e.StartTime.String()).Set("end_time", e.EndTime.String())
	} else {
		u = u.SetNull("start_time").SetNull("end_time")
	}
	return u.Where(entsql.EQ("id", e.ID)).
		Returning(exceptionColumns...).
		Query()
}

func orphanSweepQuery() (string, []any) {
	e := builder().Table(exceptionsTable)
	p := builder().Table(patternsTable)

	return builder().Delete(exceptionsTable).
		Where(entsql.NotExists(
			builder().Select(p.C("id")).
				From(p).
				Where(entsql.ColumnsEQ(p.C("id"), e.C("recurring_pattern_id"))),
		)).
		Query()
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanPattern(rows scanner) (store.RecurringPattern, error) {
	var (
		p          store.RecurringPattern
		day        int16
		start, end string
	)
	if err := rows.Scan(&p.ID, &p.OwnerID, &day, &start, &end, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return store.RecurringPattern{}, fmt.Errorf("scan pattern: %w", err)
	}
	p.DayOfWeek = time.Weekday(day)

	var err error
	if p.StartTime, err = slottime.ParseClock(start); err != nil {
		return store.RecurringPattern{}, fmt.Errorf("scan pattern %s: %w", p.ID, err)
	}
	if p.EndTime, err = slottime.ParseClock(end); err != nil {
		return store.RecurringPattern{}, fmt.Errorf("scan pattern %s: %w", p.ID, err)
	}
	return p, nil
}

func scanException(rows scanner) (store.Exception, error) {
	var (
		e          store.Exception
		date, kind string
		start, end sql.NullString
	)
	if err := rows.Scan(&e.ID, &e.RecurringPatternID, &date, &kind, &start, &end, &e.CreatedAt); err != nil {
		return store.Exception{}, fmt.Errorf("scan exception: %w", err)
	}
	e.Kind = store.ExceptionKind(kind)

	var err error
	if e.ExceptionDate, err = slottime.ParseDate(date); err != nil {
		return store.Exception{}, fmt.Errorf("scan exception %s: %w", e.ID, err)
	}
	if start.Valid && start.String != "" {
		if e.StartTime, err = slottime.ParseClock(start.String); err != nil {
			return store.Exception{}, fmt.Errorf("scan exception %s: %w", e.ID, err)
		}
	}
	if end.Valid && end.String != "" {
		if e.EndTime, err = slottime.ParseClock(end.String); err != nil {
			return store.Exception{}, fmt.Errorf("scan exception %s: %w", e.ID, err)
		}
	}
	return e, nil
}

func nullClock(c slottime.Clock) any {
	if c.IsZero() {
		return nil
	}
	return c.String()
}
