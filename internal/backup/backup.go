package backup

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"skbeauty-be/internal/logger"

	"go.uber.org/zap"
)

// Manifest describes one completed backup run and is written alongside the
// exported files before zipping.
type Manifest struct {
	Timestamp      string   `json:"timestamp"`
	TablesBackedUp []string `json:"tables_backed_up"`
	TablesExcluded []string `json:"tables_excluded"`
	TotalFiles     int      `json:"total_files"`
	BackupDate     string   `json:"backup_date"`
}

type Exporter struct {
	db       *sql.DB
	excluded map[string]bool
}

func NewExporter(db *sql.DB, excluded []string) *Exporter {
	skip := make(map[string]bool, len(excluded))
	for _, t := range excluded {
		skip[t] = true
	}
	return &Exporter{db: db, excluded: skip}
}

// Run exports every public table to a CSV file and a SQL INSERT dump under
// outDir, writes the manifest, and zips the directory. It returns the path of
// the archive.
func (e *Exporter) Run(ctx context.Context, outDir string) (string, error) {
	log := logger.FromCtx(ctx).With(zap.String("component", "backup"))

	now := time.Now()
	dir := filepath.Join(outDir, "backup_"+now.Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	tables, err := e.listTables(ctx)
	if err != nil {
		return "", err
	}

	manifest := Manifest{
		Timestamp:  now.Format(time.RFC3339),
		BackupDate: now.Format("2006-01-02"),
	}

	for _, table := range tables {
		if e.excluded[table] {
			manifest.TablesExcluded = append(manifest.TablesExcluded, table)
			continue
		}

		if err := e.exportTable(ctx, table, dir); err != nil {
			return "", fmt.Errorf("export %s: %w", table, err)
		}
		manifest.TablesBackedUp = append(manifest.TablesBackedUp, table)
		manifest.TotalFiles += 2
		log.Info("table exported", zap.String("table", table))
	}

	// manifest.json counts itself.
	manifest.TotalFiles++
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644); err != nil {
		return "", err
	}

	archive := dir + ".zip"
	if err := zipDir(dir, archive); err != nil {
		return "", err
	}

	log.Info("backup complete",
		zap.String("archive", archive),
		zap.Int("tables", len(manifest.TablesBackedUp)),
	)
	return archive, nil
}

func (e *Exporter) listTables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// exportTable writes <table>.csv and <table>.sql. Table names come from
// information_schema, not from user input, so interpolating them is safe.
func (e *Exporter) exportTable(ctx context.Context, table, dir string) error {
	rows, err := e.db.QueryContext(ctx, `SELECT * FROM `+table)
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(dir, table+".csv"))
	if err != nil {
		return err
	}
	defer csvFile.Close()

	sqlFile, err := os.Create(filepath.Join(dir, table+".sql"))
	if err != nil {
		return err
	}
	defer sqlFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(columns); err != nil {
		return err
	}

	raw := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}

		record := make([]string, len(columns))
		literals := make([]string, len(columns))
		for i, v := range raw {
			record[i] = fieldString(v)
			literals[i] = sqlLiteral(v)
		}

		if err := w.Write(record); err != nil {
			return err
		}

		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);\n",
			table, strings.Join(columns, ", "), strings.Join(literals, ", "))
		if _, err := sqlFile.WriteString(stmt); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func fieldString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func sqlLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case int64:
		return fmt.Sprint(x)
	case float64:
		return fmt.Sprint(x)
	case time.Time:
		return "'" + x.Format(time.RFC3339) + "'"
	case []byte:
		return "'" + strings.ReplaceAll(string(x), "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(x), "'", "''") + "'"
	}
}

func zipDir(dir, archive string) error {
	out, err := os.Create(archive)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		dst, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		_, err = io.Copy(dst, f)
		return err
	})
}
