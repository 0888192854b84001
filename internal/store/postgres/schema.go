package postgres

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	patternsTable   = "recurring_patterns"
	exceptionsTable = "exceptions"
)

var (
	// PatternsColumns holds the columns for the "recurring_patterns" table.
	PatternsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "owner_id", Type: field.TypeUUID},
		{Name: "day_of_week", Type: field.TypeInt8, Comment: "0=Sunday, 1=Monday … 6=Saturday"},
		{Name: "start_time", Type: field.TypeString, Size: 5},
		{Name: "end_time", Type: field.TypeString, Size: 5},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// PatternsTable holds the schema information for the "recurring_patterns" table.
	PatternsTable = &schema.Table{
		Name:       patternsTable,
		Columns:    PatternsColumns,
		PrimaryKey: []*schema.Column{PatternsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "recurringpattern_owner_id_day_of_week_start_time",
				Unique:  false,
				Columns: []*schema.Column{PatternsColumns[1], PatternsColumns[2], PatternsColumns[3]},
			},
		},
	}

	// ExceptionsColumns holds the columns for the "exceptions" table.
	ExceptionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "recurring_pattern_id", Type: field.TypeUUID},
		{Name: "exception_date", Type: field.TypeString, Size: 10, Comment: "YYYY-MM-DD"},
		{Name: "exception_kind", Type: field.TypeEnum, Enums: []string{"deleted", "modified"}},
		{Name: "start_time", Type: field.TypeString, Nullable: true, Size: 5},
		{Name: "end_time", Type: field.TypeString, Nullable: true, Size: 5},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ExceptionsTable holds the schema information for the "exceptions" table.
	// (pattern, date) is indexed but deliberately not unique: the service
	// enforces one row per pair with lookup-before-write.
	ExceptionsTable = &schema.Table{
		Name:       exceptionsTable,
		Columns:    ExceptionsColumns,
		PrimaryKey: []*schema.Column{ExceptionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "exceptions_recurring_patterns_exceptions",
				Columns:    []*schema.Column{ExceptionsColumns[1]},
				RefColumns: []*schema.Column{PatternsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "exception_recurring_pattern_id_exception_date",
				Unique:  false,
				Columns: []*schema.Column{ExceptionsColumns[1], ExceptionsColumns[2]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		PatternsTable,
		ExceptionsTable,
	}
)

func init() {
	ExceptionsTable.ForeignKeys[0].RefTable = PatternsTable
}

// Migrate creates or updates the scheduler tables.
func Migrate(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("create migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
