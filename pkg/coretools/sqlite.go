package coretools

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harun/toolplan/pkg/toolexecutor"
)

const maxQueryRows = 500

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// sqliteDB opens the tool database on first use.
type sqliteDB struct {
	path string
	once sync.Once
	db   *sql.DB
	err  error
}

func (s *sqliteDB) conn() (*sql.DB, error) {
	s.once.Do(func() {
		db, err := sql.Open("sqlite3", s.path)
		if err != nil {
			s.err = fmt.Errorf("failed to open database: %w", err)
			return
		}
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			s.err = fmt.Errorf("failed to enable WAL mode: %w", err)
			return
		}
		s.db = db
	})
	return s.db, s.err
}

func sqliteTools(opts Options) []toolexecutor.ToolDefinition {
	store := &sqliteDB{path: opts.SQLitePath}

	return []toolexecutor.ToolDefinition{
		{
			Name:        "create_table",
			Description: "Create a table if it does not exist.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "table", Description: "Table name", Required: true},
				{Name: "schema", Description: "Column definitions, e.g. id INTEGER PRIMARY KEY, name TEXT", Required: true},
			},
			Returns: "confirmation",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				table, err := tableParam(params)
				if err != nil {
					return nil, err
				}
				schema, err := requiredString(params, "schema")
				if err != nil {
					return nil, err
				}
				if err := singleStatement(schema); err != nil {
					return nil, err
				}
				db, err := store.conn()
				if err != nil {
					return nil, err
				}
				if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, schema)); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Table %s created", table), nil
			},
		},
		{
			Name:        "insert_data",
			Description: "Insert one row; values are comma-separated in column order.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "table", Description: "Table name", Required: true},
				{Name: "values", Description: "Comma-separated values", Required: true},
			},
			Returns: "confirmation with the inserted values",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				table, err := tableParam(params)
				if err != nil {
					return nil, err
				}
				raw, err := requiredString(params, "values")
				if err != nil {
					return nil, err
				}
				parts := strings.Split(raw, ",")
				args := make([]interface{}, len(parts))
				for i, p := range parts {
					parts[i] = strings.TrimSpace(p)
					args[i] = parts[i]
				}
				placeholders := strings.TrimSuffix(strings.Repeat("?,", len(parts)), ",")

				db, err := store.conn()
				if err != nil {
					return nil, err
				}
				if _, err := db.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, placeholders), args...); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Inserted into %s: %s", table, strings.Join(parts, ", ")), nil
			},
		},
		{
			Name:        "query_data",
			Description: "Run a SELECT query.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "query", Description: "Full SQL SELECT statement", Required: true},
			},
			Returns: "row count followed by one row per line",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				query, err := statementParam(params, "SELECT")
				if err != nil {
					return nil, err
				}
				db, err := store.conn()
				if err != nil {
					return nil, err
				}
				return queryRows(ctx, db, query)
			},
		},
		mutationTool(store, "update_data", "Run an UPDATE statement.", "UPDATE", "Updated"),
		mutationTool(store, "delete_data", "Run a DELETE statement.", "DELETE", "Deleted"),
		{
			Name:        "list_tables",
			Description: "List all table names.",
			Returns:     "comma-separated table names",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				db, err := store.conn()
				if err != nil {
					return nil, err
				}
				rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
				if err != nil {
					return nil, err
				}
				defer rows.Close()

				var names []string
				for rows.Next() {
					var name string
					if err := rows.Scan(&name); err != nil {
						return nil, err
					}
					names = append(names, name)
				}
				if err := rows.Err(); err != nil {
					return nil, err
				}
				return "Tables: " + strings.Join(names, ", "), nil
			},
		},
	}
}

func mutationTool(store *sqliteDB, name, description, verb, past string) toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        name,
		Description: description,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "query", Description: "Full SQL " + verb + " statement", Required: true},
		},
		Returns: "affected row count",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			query, err := statementParam(params, verb)
			if err != nil {
				return nil, err
			}
			db, err := store.conn()
			if err != nil {
				return nil, err
			}
			res, err := db.ExecContext(ctx, query)
			if err != nil {
				return nil, err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("%s %d rows", past, n), nil
		},
	}
}

func tableParam(params map[string]interface{}) (string, error) {
	table, err := requiredString(params, "table")
	if err != nil {
		return "", err
	}
	if !identPattern.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// statementParam reads a single SQL statement starting with verb.
func statementParam(params map[string]interface{}, verb string) (string, error) {
	query, err := requiredString(params, "query")
	if err != nil {
		return "", err
	}
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")
	fields := strings.Fields(query)
	if len(fields) == 0 || !strings.EqualFold(fields[0], verb) {
		return "", fmt.Errorf("query must be a %s statement", verb)
	}
	if err := singleStatement(query); err != nil {
		return "", err
	}
	return query, nil
}

func singleStatement(s string) error {
	if strings.Contains(s, ";") {
		return fmt.Errorf("only a single statement is allowed")
	}
	return nil
}

func queryRows(ctx context.Context, db *sql.DB, query string) (string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var lines []string
	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if len(lines) >= maxQueryRows {
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			switch tv := v.(type) {
			case nil:
				cells[i] = "NULL"
			case []byte:
				cells[i] = string(tv)
			default:
				cells[i] = fmt.Sprint(tv)
			}
		}
		lines = append(lines, "("+strings.Join(cells, ", ")+")")
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	out := fmt.Sprintf("Query returned %d rows", len(lines))
	if len(lines) == 0 {
		return out, nil
	}
	return out + ":\n" + strings.Join(lines, "\n"), nil
}
