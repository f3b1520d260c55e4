package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/recall/internal/database"
	"github.com/example/recall/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	FrontColumn       string // Column with the prompt
	BackColumn        string // Column with the answer
	CollectionColumn  string // Column with the collection name, may be empty
	DefaultCollection string // Collection for rows without one
	SheetName         string // Sheet to import, the first sheet when empty
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		FrontColumn:       "A",
		BackColumn:        "B",
		CollectionColumn:  "C",
		DefaultCollection: "default",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed     int      `json:"total_processed"`
	CollectionsCreated int      `json:"collections_created"`
	Created            int      `json:"created"`
	Skipped            int      `json:"skipped"`
	Errors             []string `json:"errors,omitempty"`
}

type collectionRepo interface {
	GetOrCreate(ctx context.Context, learnerID int64, name string) (*models.Collection, bool, error)
}

type itemRepo interface {
	Create(ctx context.Context, item *models.ReviewItem) error
}

// Importer loads items for one learner from spreadsheets
type Importer struct {
	collections collectionRepo
	items       itemRepo
}

func NewImporter(collections collectionRepo, items itemRepo) *Importer {
	return &Importer{collections: collections, items: items}
}

type row struct {
	num        int
	front      string
	back       string
	collection string
}

// Import reads an Excel or CSV file and creates the learner's items.
// Rows whose front already exists in the collection are skipped.
func (im *Importer) Import(ctx context.Context, learnerID int64, cfg ImportConfig) (*ImportResult, error) {
	var (
		rows []row
		err  error
	)
	if strings.ToLower(filepath.Ext(cfg.FilePath)) == ".csv" {
		rows, err = readCSV(cfg)
	} else {
		rows, err = readExcel(cfg)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	collectionIDs := make(map[string]int64)

	for _, r := range rows {
		result.TotalProcessed++
		if err := im.importRow(ctx, learnerID, cfg, r, collectionIDs, result); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", r.num, err))
		}
	}

	return result, nil
}

func (im *Importer) importRow(ctx context.Context, learnerID int64, cfg ImportConfig, r row, collectionIDs map[string]int64, result *ImportResult) error {
	if r.front == "" {
		return fmt.Errorf("front cannot be empty")
	}
	if r.back == "" {
		return fmt.Errorf("back cannot be empty")
	}

	name := r.collection
	if name == "" {
		name = cfg.DefaultCollection
	}
	if name == "" {
		return fmt.Errorf("no collection")
	}

	key := strings.ToLower(name)
	collectionID, ok := collectionIDs[key]
	if !ok {
		c, created, err := im.collections.GetOrCreate(ctx, learnerID, name)
		if err != nil {
			return fmt.Errorf("failed to process collection: %w", err)
		}
		if created {
			result.CollectionsCreated++
		}
		collectionID = c.ID
		collectionIDs[key] = collectionID
	}

	item := &models.ReviewItem{CollectionID: collectionID, Front: r.front, Back: r.back}
	err := im.items.Create(ctx, item)
	switch {
	case errors.Is(err, database.ErrAlreadyExists):
		result.Skipped++
		return nil
	case err != nil:
		return fmt.Errorf("failed to create item: %w", err)
	}
	result.Created++
	return nil
}

// readExcel reads rows from an Excel file
func readExcel(cfg ImportConfig) ([]row, error) {
	f, err := excelize.OpenFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := cfg.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	front, back, coll, err := columnIndexes(cfg)
	if err != nil {
		return nil, err
	}

	var rows []row
	for i, cell := range cells {
		// Skip header rows
		if i < cfg.StartRow-1 || isBlank(cell) {
			continue
		}
		rows = append(rows, row{
			num:        i + 1,
			front:      cellAt(cell, front),
			back:       cellAt(cell, back),
			collection: cellAt(cell, coll),
		})
	}
	return rows, nil
}

// readCSV reads rows from a CSV file. A row with only its first field set
// names the collection for the rows that follow it.
func readCSV(cfg ImportConfig) ([]row, error) {
	file, err := os.Open(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	front, back, coll, err := columnIndexes(cfg)
	if err != nil {
		return nil, err
	}

	var rows []row
	current := ""
	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}

		rowNum++
		if rowNum < cfg.StartRow || isBlank(record) {
			continue
		}

		// Section header, e.g. "Verbs,,"
		if first := strings.TrimSpace(record[0]); first != "" && isBlank(record[1:]) {
			current = strings.Trim(first, "\"")
			continue
		}

		r := row{
			num:        rowNum,
			front:      cellAt(record, front),
			back:       cellAt(record, back),
			collection: cellAt(record, coll),
		}
		if r.collection == "" {
			r.collection = current
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// columnIndexes converts column letters to zero-based indexes; -1 marks an unused column.
func columnIndexes(cfg ImportConfig) (front, back, coll int, err error) {
	if front, err = columnToIndex(cfg.FrontColumn); err != nil {
		return
	}
	if back, err = columnToIndex(cfg.BackColumn); err != nil {
		return
	}
	coll = -1
	if cfg.CollectionColumn != "" {
		coll, err = columnToIndex(cfg.CollectionColumn)
	}
	return
}

func columnToIndex(column string) (int, error) {
	n, err := excelize.ColumnNameToNumber(column)
	if err != nil {
		return 0, fmt.Errorf("invalid column %q: %w", column, err)
	}
	return n - 1, nil
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
