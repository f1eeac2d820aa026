package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Row Types
// =============================================================================

// catalogRow represents a catalog row in the database.
type catalogRow struct {
	ItemNo      string   `db:"item_no"`
	Description string   `db:"description"`
	PackSizeRaw string   `db:"pack_size_raw"`
	AvgCost     *float64 `db:"avg_cost"`
	Vendor      string   `db:"vendor"`
	SalesRep    string   `db:"sales_rep"`
}

// locationRow represents a pallet location row. Items and history are stored
// as JSON documents.
type locationRow struct {
	Pallet  int    `db:"pallet"`
	Items   string `db:"items"`
	SavedBy string `db:"saved_by"`
	SavedAt string `db:"saved_at"`
	History string `db:"history"`
}

// breakerRow represents one ledger row.
type breakerRow struct {
	Seq         int64  `db:"seq"`
	ItemNo      string `db:"item_no"`
	Description string `db:"description"`
	Units       int64  `db:"units"`
	Category    string `db:"category"`
	Employee    string `db:"employee"`
	WhenIso     string `db:"when_iso"`
}

// settingsRow represents the singular settings record.
type settingsRow struct {
	ID          int    `db:"id"`
	PalletCount *int   `db:"pallet_count"`
	AdminDigest string `db:"admin_digest"`
}

// =============================================================================
// Catalog Operations
// =============================================================================

func (s *SQLiteStore) ReplaceCatalog(ctx context.Context, items []domain.CatalogItem) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.ReplaceCatalog(ctx, items)
	})
}

func (s *SQLiteStore) GetCatalogItem(ctx context.Context, itemNo string) (*domain.CatalogItem, error) {
	return getCatalogItem(ctx, s.db, itemNo)
}

func (s *SQLiteStore) SearchCatalog(ctx context.Context, query string, limit int) ([]domain.CatalogItem, error) {
	return searchCatalog(ctx, s.db, query, limit)
}

func (s *SQLiteStore) ListCatalog(ctx context.Context) ([]domain.CatalogItem, error) {
	return listCatalog(ctx, s.db)
}

// =============================================================================
// Conversion Registry Operations
// =============================================================================

func (s *SQLiteStore) GetFactor(ctx context.Context, itemNo string) (int, error) {
	return getFactor(ctx, s.db, itemNo)
}

func (s *SQLiteStore) PutFactor(ctx context.Context, itemNo string, factor int) error {
	return putFactor(ctx, s.db, itemNo, factor)
}

func (s *SQLiteStore) DeleteFactor(ctx context.Context, itemNo string) error {
	return deleteFactor(ctx, s.db, itemNo)
}

func (s *SQLiteStore) ListFactors(ctx context.Context) ([]domain.ConversionEntry, error) {
	return listFactors(ctx, s.db)
}

func (s *SQLiteStore) ReplaceFactors(ctx context.Context, entries []domain.ConversionEntry) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.ReplaceFactors(ctx, entries)
	})
}

// =============================================================================
// Pallet Location Operations
// =============================================================================

func (s *SQLiteStore) GetPallet(ctx context.Context, pallet int) (*domain.PalletRecord, error) {
	return getPallet(ctx, s.db, pallet)
}

func (s *SQLiteStore) SavePallet(ctx context.Context, rec *domain.PalletRecord) error {
	return savePallet(ctx, s.db, rec)
}

func (s *SQLiteStore) DeletePallet(ctx context.Context, pallet int) error {
	return deletePallet(ctx, s.db, pallet)
}

func (s *SQLiteStore) ListPallets(ctx context.Context) ([]domain.PalletRecord, error) {
	return listPallets(ctx, s.db)
}

func (s *SQLiteStore) ReplacePallets(ctx context.Context, recs []domain.PalletRecord) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.ReplacePallets(ctx, recs)
	})
}

// =============================================================================
// Breaker Ledger Operations
// =============================================================================

func (s *SQLiteStore) AppendBreaker(ctx context.Context, entry domain.BreakerEntry) (int64, error) {
	return appendBreaker(ctx, s.db, entry)
}

func (s *SQLiteStore) BreakersBetween(ctx context.Context, fromIso, toIso string) ([]domain.BreakerEntry, error) {
	return breakersBetween(ctx, s.db, fromIso, toIso)
}

func (s *SQLiteStore) RecentBreakers(ctx context.Context, limit int) ([]domain.BreakerEntry, error) {
	return recentBreakers(ctx, s.db, limit)
}

func (s *SQLiteStore) SumBreakerUnits(ctx context.Context, itemNo string) (map[domain.Category]int64, error) {
	return sumBreakerUnits(ctx, s.db, itemNo)
}

func (s *SQLiteStore) ListBreakers(ctx context.Context) ([]domain.BreakerEntry, error) {
	return listBreakers(ctx, s.db)
}

func (s *SQLiteStore) ReplaceBreakers(ctx context.Context, entries []domain.BreakerEntry) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.ReplaceBreakers(ctx, entries)
	})
}

// =============================================================================
// Settings Operations
// =============================================================================

func (s *SQLiteStore) GetSettings(ctx context.Context) (domain.Settings, error) {
	return getSettings(ctx, s.db)
}

func (s *SQLiteStore) SetPalletCount(ctx context.Context, n int) error {
	return setPalletCount(ctx, s.db, n)
}

func (s *SQLiteStore) SetAdminDigest(ctx context.Context, digest string) error {
	return setAdminDigest(ctx, s.db, digest)
}

func (s *SQLiteStore) RestoreSettings(ctx context.Context, set domain.Settings) error {
	return restoreSettings(ctx, s.db, set)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) ReplaceCatalog(ctx context.Context, items []domain.CatalogItem) error {
	return replaceCatalog(ctx, s.tx, items)
}

func (s *txSQLiteStore) GetCatalogItem(ctx context.Context, itemNo string) (*domain.CatalogItem, error) {
	return getCatalogItem(ctx, s.tx, itemNo)
}

func (s *txSQLiteStore) SearchCatalog(ctx context.Context, query string, limit int) ([]domain.CatalogItem, error) {
	return searchCatalog(ctx, s.tx, query, limit)
}

func (s *txSQLiteStore) ListCatalog(ctx context.Context) ([]domain.CatalogItem, error) {
	return listCatalog(ctx, s.tx)
}

func (s *txSQLiteStore) GetFactor(ctx context.Context, itemNo string) (int, error) {
	return getFactor(ctx, s.tx, itemNo)
}

func (s *txSQLiteStore) PutFactor(ctx context.Context, itemNo string, factor int) error {
	return putFactor(ctx, s.tx, itemNo, factor)
}

func (s *txSQLiteStore) DeleteFactor(ctx context.Context, itemNo string) error {
	return deleteFactor(ctx, s.tx, itemNo)
}

func (s *txSQLiteStore) ListFactors(ctx context.Context) ([]domain.ConversionEntry, error) {
	return listFactors(ctx, s.tx)
}

func (s *txSQLiteStore) ReplaceFactors(ctx context.Context, entries []domain.ConversionEntry) error {
	return replaceFactors(ctx, s.tx, entries)
}

func (s *txSQLiteStore) GetPallet(ctx context.Context, pallet int) (*domain.PalletRecord, error) {
	return getPallet(ctx, s.tx, pallet)
}

func (s *txSQLiteStore) SavePallet(ctx context.Context, rec *domain.PalletRecord) error {
	return savePallet(ctx, s.tx, rec)
}

func (s *txSQLiteStore) DeletePallet(ctx context.Context, pallet int) error {
	return deletePallet(ctx, s.tx, pallet)
}

func (s *txSQLiteStore) ListPallets(ctx context.Context) ([]domain.PalletRecord, error) {
	return listPallets(ctx, s.tx)
}

func (s *txSQLiteStore) ReplacePallets(ctx context.Context, recs []domain.PalletRecord) error {
	return replacePallets(ctx, s.tx, recs)
}

func (s *txSQLiteStore) AppendBreaker(ctx context.Context, entry domain.BreakerEntry) (int64, error) {
	return appendBreaker(ctx, s.tx, entry)
}

func (s *txSQLiteStore) BreakersBetween(ctx context.Context, fromIso, toIso string) ([]domain.BreakerEntry, error) {
	return breakersBetween(ctx, s.tx, fromIso, toIso)
}

func (s *txSQLiteStore) RecentBreakers(ctx context.Context, limit int) ([]domain.BreakerEntry, error) {
	return recentBreakers(ctx, s.tx, limit)
}

func (s *txSQLiteStore) SumBreakerUnits(ctx context.Context, itemNo string) (map[domain.Category]int64, error) {
	return sumBreakerUnits(ctx, s.tx, itemNo)
}

func (s *txSQLiteStore) ListBreakers(ctx context.Context) ([]domain.BreakerEntry, error) {
	return listBreakers(ctx, s.tx)
}

func (s *txSQLiteStore) ReplaceBreakers(ctx context.Context, entries []domain.BreakerEntry) error {
	return replaceBreakers(ctx, s.tx, entries)
}

func (s *txSQLiteStore) GetSettings(ctx context.Context) (domain.Settings, error) {
	return getSettings(ctx, s.tx)
}

func (s *txSQLiteStore) SetPalletCount(ctx context.Context, n int) error {
	return setPalletCount(ctx, s.tx, n)
}

func (s *txSQLiteStore) SetAdminDigest(ctx context.Context, digest string) error {
	return setAdminDigest(ctx, s.tx, digest)
}

func (s *txSQLiteStore) RestoreSettings(ctx context.Context, set domain.Settings) error {
	return restoreSettings(ctx, s.tx, set)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// Shared Implementation Functions - Catalog
// =============================================================================

func replaceCatalog(ctx context.Context, exec executor, items []domain.CatalogItem) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM catalog`); err != nil {
		return NewStoreError("ReplaceCatalog", "catalog", "", err.Error(), err)
	}

	query := `
		INSERT INTO catalog (item_no, description, pack_size_raw, avg_cost, vendor, sales_rep)
		VALUES (:item_no, :description, :pack_size_raw, :avg_cost, :vendor, :sales_rep)`

	for _, item := range items {
		row := map[string]any{
			"item_no":       item.ItemNo,
			"description":   item.Description,
			"pack_size_raw": item.PackSizeRaw,
			"avg_cost":      item.AvgCost,
			"vendor":        item.Vendor,
			"sales_rep":     item.SalesRep,
		}
		if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
			return NewStoreError("ReplaceCatalog", "catalog", item.ItemNo, err.Error(), err)
		}
	}

	return nil
}

func getCatalogItem(ctx context.Context, exec executor, itemNo string) (*domain.CatalogItem, error) {
	var row catalogRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM catalog WHERE item_no = ?`, itemNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetCatalogItem", "catalog", itemNo, "item not found", ErrNotFound)
		}
		return nil, NewStoreError("GetCatalogItem", "catalog", itemNo, err.Error(), err)
	}
	item := rowToCatalogItem(&row)
	return &item, nil
}

// likeEscaper neutralizes LIKE metacharacters in user input. The backslash
// must go first so escape characters are not double-escaped.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func searchCatalog(ctx context.Context, exec executor, query string, limit int) ([]domain.CatalogItem, error) {
	if limit <= 0 {
		limit = 50
	}

	// Literal substring match: LIKE metacharacters in operator input are
	// escaped so "et_12" does not match "et 12". SQLite LIKE is
	// case-insensitive for ASCII; item_no ordering keeps iteration stable
	// across calls.
	escaped := likeEscaper.Replace(query)
	var rows []catalogRow
	err := exec.SelectContext(ctx, &rows,
		`SELECT * FROM catalog WHERE description LIKE '%' || ? || '%' ESCAPE '\' ORDER BY item_no LIMIT ?`,
		escaped, limit)
	if err != nil {
		return nil, NewStoreError("SearchCatalog", "catalog", "", err.Error(), err)
	}

	items := make([]domain.CatalogItem, 0, len(rows))
	for i := range rows {
		items = append(items, rowToCatalogItem(&rows[i]))
	}
	return items, nil
}

func listCatalog(ctx context.Context, exec executor) ([]domain.CatalogItem, error) {
	var rows []catalogRow
	err := exec.SelectContext(ctx, &rows, `SELECT * FROM catalog ORDER BY item_no`)
	if err != nil {
		return nil, NewStoreError("ListCatalog", "catalog", "", err.Error(), err)
	}

	items := make([]domain.CatalogItem, 0, len(rows))
	for i := range rows {
		items = append(items, rowToCatalogItem(&rows[i]))
	}
	return items, nil
}

// =============================================================================
// Shared Implementation Functions - Conversions
// =============================================================================

func getFactor(ctx context.Context, exec executor, itemNo string) (int, error) {
	var factor int
	err := exec.GetContext(ctx, &factor, `SELECT factor FROM conversions WHERE item_no = ?`, itemNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, NewStoreError("GetFactor", "conversion", itemNo, "factor not set", ErrNotFound)
		}
		return 0, NewStoreError("GetFactor", "conversion", itemNo, err.Error(), err)
	}
	return factor, nil
}

func putFactor(ctx context.Context, exec executor, itemNo string, factor int) error {
	if itemNo == "" {
		return NewStoreError("PutFactor", "conversion", "", "item number is required", ErrInvalidEntry)
	}
	if err := domain.ValidateFactor(factor); err != nil {
		return NewStoreError("PutFactor", "conversion", itemNo, err.Error(), ErrInvalidEntry)
	}

	_, err := exec.ExecContext(ctx, `
		INSERT INTO conversions (item_no, factor) VALUES (?, ?)
		ON CONFLICT(item_no) DO UPDATE SET factor = excluded.factor`,
		itemNo, factor)
	if err != nil {
		return NewStoreError("PutFactor", "conversion", itemNo, err.Error(), err)
	}
	return nil
}

func deleteFactor(ctx context.Context, exec executor, itemNo string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM conversions WHERE item_no = ?`, itemNo)
	if err != nil {
		return NewStoreError("DeleteFactor", "conversion", itemNo, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteFactor", "conversion", itemNo, "factor not set", ErrNotFound)
	}
	return nil
}

func listFactors(ctx context.Context, exec executor) ([]domain.ConversionEntry, error) {
	var entries []domain.ConversionEntry
	err := exec.SelectContext(ctx, &entries,
		`SELECT item_no AS itemno, factor FROM conversions ORDER BY item_no`)
	if err != nil {
		return nil, NewStoreError("ListFactors", "conversion", "", err.Error(), err)
	}
	return entries, nil
}

func replaceFactors(ctx context.Context, exec executor, entries []domain.ConversionEntry) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM conversions`); err != nil {
		return NewStoreError("ReplaceFactors", "conversion", "", err.Error(), err)
	}
	for _, e := range entries {
		if err := putFactor(ctx, exec, e.ItemNo, e.Factor); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Shared Implementation Functions - Pallet Locations
// =============================================================================

func getPallet(ctx context.Context, exec executor, pallet int) (*domain.PalletRecord, error) {
	var row locationRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM locations WHERE pallet = ?`, pallet)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetPallet", "pallet", strconv.Itoa(pallet), "pallet not found", ErrNotFound)
		}
		return nil, NewStoreError("GetPallet", "pallet", strconv.Itoa(pallet), err.Error(), err)
	}
	return rowToPalletRecord(&row)
}

func savePallet(ctx context.Context, exec executor, rec *domain.PalletRecord) error {
	key := strconv.Itoa(rec.Pallet)
	if rec.Pallet <= 0 {
		return NewStoreError("SavePallet", "pallet", key, domain.ErrBadPallet.Error(), ErrInvalidEntry)
	}

	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return NewStoreError("SavePallet", "pallet", key, "failed to serialize items", ErrInvalidData)
	}
	historyJSON, err := json.Marshal(rec.History)
	if err != nil {
		return NewStoreError("SavePallet", "pallet", key, "failed to serialize history", ErrInvalidData)
	}

	query := `
		INSERT INTO locations (pallet, items, saved_by, saved_at, history)
		VALUES (:pallet, :items, :saved_by, :saved_at, :history)
		ON CONFLICT(pallet) DO UPDATE SET
			items = excluded.items,
			saved_by = excluded.saved_by,
			saved_at = excluded.saved_at,
			history = excluded.history`

	row := map[string]any{
		"pallet":   rec.Pallet,
		"items":    string(itemsJSON),
		"saved_by": rec.SavedBy,
		"saved_at": rec.SavedAt.Format(time.RFC3339Nano),
		"history":  string(historyJSON),
	}

	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		return NewStoreError("SavePallet", "pallet", key, err.Error(), err)
	}
	return nil
}

func deletePallet(ctx context.Context, exec executor, pallet int) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM locations WHERE pallet = ?`, pallet)
	if err != nil {
		return NewStoreError("DeletePallet", "pallet", strconv.Itoa(pallet), err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeletePallet", "pallet", strconv.Itoa(pallet), "pallet not found", ErrNotFound)
	}
	return nil
}

func listPallets(ctx context.Context, exec executor) ([]domain.PalletRecord, error) {
	var rows []locationRow
	err := exec.SelectContext(ctx, &rows, `SELECT * FROM locations ORDER BY pallet`)
	if err != nil {
		return nil, NewStoreError("ListPallets", "pallet", "", err.Error(), err)
	}

	recs := make([]domain.PalletRecord, 0, len(rows))
	for i := range rows {
		rec, err := rowToPalletRecord(&rows[i])
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

func replacePallets(ctx context.Context, exec executor, recs []domain.PalletRecord) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM locations`); err != nil {
		return NewStoreError("ReplacePallets", "pallet", "", err.Error(), err)
	}
	for i := range recs {
		if err := savePallet(ctx, exec, &recs[i]); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Shared Implementation Functions - Breaker Ledger
// =============================================================================

func appendBreaker(ctx context.Context, exec executor, entry domain.BreakerEntry) (int64, error) {
	if err := domain.ValidateBreaker(entry); err != nil {
		return 0, NewStoreError("AppendBreaker", "breaker", entry.ItemNo, err.Error(), ErrInvalidEntry)
	}

	result, err := exec.ExecContext(ctx, `
		INSERT INTO breakers (item_no, description, units, category, employee, when_iso)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ItemNo, entry.Description, entry.Units, string(entry.Category), entry.Employee, entry.WhenIso)
	if err != nil {
		return 0, NewStoreError("AppendBreaker", "breaker", entry.ItemNo, err.Error(), err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return 0, NewStoreError("AppendBreaker", "breaker", entry.ItemNo, err.Error(), err)
	}
	return seq, nil
}

func breakersBetween(ctx context.Context, exec executor, fromIso, toIso string) ([]domain.BreakerEntry, error) {
	// Inclusive day-granularity range, newest first. Within a day, ledger
	// order (seq) breaks ties; every entry sits at the local-noon anchor.
	var rows []breakerRow
	err := exec.SelectContext(ctx, &rows, `
		SELECT * FROM breakers
		WHERE when_iso >= ? AND when_iso <= ?
		ORDER BY when_iso DESC, seq DESC`,
		fromIso, toIso)
	if err != nil {
		return nil, NewStoreError("BreakersBetween", "breaker", "", err.Error(), err)
	}
	return rowsToBreakers(rows), nil
}

func recentBreakers(ctx context.Context, exec executor, limit int) ([]domain.BreakerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []breakerRow
	err := exec.SelectContext(ctx, &rows,
		`SELECT * FROM breakers ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, NewStoreError("RecentBreakers", "breaker", "", err.Error(), err)
	}
	return rowsToBreakers(rows), nil
}

func sumBreakerUnits(ctx context.Context, exec executor, itemNo string) (map[domain.Category]int64, error) {
	var rows []struct {
		Category string `db:"category"`
		Total    int64  `db:"total"`
	}
	err := exec.SelectContext(ctx, &rows, `
		SELECT category, COALESCE(SUM(units), 0) AS total
		FROM breakers WHERE item_no = ? GROUP BY category`,
		itemNo)
	if err != nil {
		return nil, NewStoreError("SumBreakerUnits", "breaker", itemNo, err.Error(), err)
	}

	totals := make(map[domain.Category]int64, len(rows))
	for _, r := range rows {
		totals[domain.Category(r.Category)] = r.Total
	}
	return totals, nil
}

func listBreakers(ctx context.Context, exec executor) ([]domain.BreakerEntry, error) {
	var rows []breakerRow
	err := exec.SelectContext(ctx, &rows, `SELECT * FROM breakers ORDER BY seq`)
	if err != nil {
		return nil, NewStoreError("ListBreakers", "breaker", "", err.Error(), err)
	}
	return rowsToBreakers(rows), nil
}

func replaceBreakers(ctx context.Context, exec executor, entries []domain.BreakerEntry) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM breakers`); err != nil {
		return NewStoreError("ReplaceBreakers", "breaker", "", err.Error(), err)
	}

	// Preserve the original sequence identities so restored ledgers read the
	// same as the exported ones.
	for _, e := range entries {
		if err := domain.ValidateBreaker(e); err != nil {
			return NewStoreError("ReplaceBreakers", "breaker", e.ItemNo, err.Error(), ErrInvalidEntry)
		}
		_, err := exec.ExecContext(ctx, `
			INSERT INTO breakers (seq, item_no, description, units, category, employee, when_iso)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.Seq, e.ItemNo, e.Description, e.Units, string(e.Category), e.Employee, e.WhenIso)
		if err != nil {
			return NewStoreError("ReplaceBreakers", "breaker", e.ItemNo, err.Error(), err)
		}
	}
	return nil
}

// =============================================================================
// Shared Implementation Functions - Settings
// =============================================================================

func getSettings(ctx context.Context, exec executor) (domain.Settings, error) {
	var row settingsRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM settings WHERE id = 1`)
	if err != nil {
		return domain.Settings{}, NewStoreError("GetSettings", "settings", "", err.Error(), err)
	}
	return domain.Settings{PalletCount: row.PalletCount, AdminDigest: row.AdminDigest}, nil
}

func setPalletCount(ctx context.Context, exec executor, n int) error {
	if n <= 0 {
		return NewStoreError("SetPalletCount", "settings", "", "pallet count must be positive", ErrInvalidEntry)
	}

	// Write-once: the update only lands while the field is still NULL.
	result, err := exec.ExecContext(ctx,
		`UPDATE settings SET pallet_count = ? WHERE id = 1 AND pallet_count IS NULL`, n)
	if err != nil {
		return NewStoreError("SetPalletCount", "settings", "", err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("SetPalletCount", "settings", "", "pallet count already set", ErrAlreadySet)
	}
	return nil
}

func setAdminDigest(ctx context.Context, exec executor, digest string) error {
	if _, err := exec.ExecContext(ctx,
		`UPDATE settings SET admin_digest = ? WHERE id = 1`, digest); err != nil {
		return NewStoreError("SetAdminDigest", "settings", "", err.Error(), err)
	}
	return nil
}

func restoreSettings(ctx context.Context, exec executor, set domain.Settings) error {
	// Restore is a destructive overwrite; the write-once rule does not apply.
	if _, err := exec.ExecContext(ctx,
		`UPDATE settings SET pallet_count = ?, admin_digest = ? WHERE id = 1`,
		set.PalletCount, set.AdminDigest); err != nil {
		return NewStoreError("RestoreSettings", "settings", "", err.Error(), err)
	}
	return nil
}

// =============================================================================
// Row Conversion Functions
// =============================================================================

func rowToCatalogItem(row *catalogRow) domain.CatalogItem {
	return domain.CatalogItem{
		ItemNo:      row.ItemNo,
		Description: row.Description,
		PackSizeRaw: row.PackSizeRaw,
		AvgCost:     row.AvgCost,
		Vendor:      row.Vendor,
		SalesRep:    row.SalesRep,
	}
}

func rowToPalletRecord(row *locationRow) (*domain.PalletRecord, error) {
	key := strconv.Itoa(row.Pallet)

	var items []domain.LineItem
	if row.Items != "" && row.Items != "null" {
		if err := json.Unmarshal([]byte(row.Items), &items); err != nil {
			return nil, NewStoreError("rowToPalletRecord", "pallet", key, "failed to parse items", ErrInvalidData)
		}
	}

	var history domain.History
	if row.History != "" && row.History != "null" {
		if err := json.Unmarshal([]byte(row.History), &history); err != nil {
			return nil, NewStoreError("rowToPalletRecord", "pallet", key, "failed to parse history", ErrInvalidData)
		}
	}

	var savedAt time.Time
	if row.SavedAt != "" {
		var err error
		savedAt, err = time.Parse(time.RFC3339Nano, row.SavedAt)
		if err != nil {
			return nil, NewStoreError("rowToPalletRecord", "pallet", key, "failed to parse saved_at", ErrInvalidData)
		}
	}

	return &domain.PalletRecord{
		Pallet:  row.Pallet,
		Items:   items,
		SavedBy: row.SavedBy,
		SavedAt: savedAt,
		History: history,
	}, nil
}

func rowsToBreakers(rows []breakerRow) []domain.BreakerEntry {
	entries := make([]domain.BreakerEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, domain.BreakerEntry{
			Seq:         r.Seq,
			ItemNo:      r.ItemNo,
			Description: r.Description,
			Units:       r.Units,
			Category:    domain.Category(r.Category),
			Employee:    r.Employee,
			WhenIso:     r.WhenIso,
		})
	}
	return entries
}
