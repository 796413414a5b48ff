// Package spreadsheet reads catalog uploads and renders ledger exports as xlsx.
package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/recebimento/internal/domain/models"
)

const (
	headerCode        = "codigo"
	headerDescription = "descricao"
	headerSection     = "secao"
)

// ReadCatalog parses the first sheet of an xlsx upload. The header row must
// carry codigo, descricao and secao; other columns are ignored. Row-level
// problems are left to the catalog service so they can be reported per row.
func ReadCatalog(r io.Reader) ([]models.CatalogRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to open spreadsheet: %v", models.ErrValidation, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet has no sheets", models.ErrValidation)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read sheet %s: %v", models.ErrValidation, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet is empty", models.ErrValidation)
	}

	index := headerIndex(rows[0])
	var missing []string
	for _, name := range []string{headerCode, headerDescription, headerSection} {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", models.ErrValidation, strings.Join(missing, ", "))
	}

	out := make([]models.CatalogRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, models.CatalogRow{
			Code:        cell(row, index[headerCode]),
			Description: cell(row, index[headerDescription]),
			Section:     cell(row, index[headerSection]),
		})
	}
	return out, nil
}

// headerIndex maps normalized header names to column positions. Accents
// are folded so "Descrição" and "Seção" match.
func headerIndex(header []string) map[string]int {
	fold := strings.NewReplacer("ç", "c", "ã", "a", "á", "a", "â", "a", "é", "e", "ê", "e", "í", "i", "ó", "o", "õ", "o", "ú", "u")
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := fold.Replace(strings.ToLower(strings.TrimSpace(name)))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
