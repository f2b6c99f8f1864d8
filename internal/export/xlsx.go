package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/RSKPixel/wealth/internal/domain"
	"github.com/RSKPixel/wealth/internal/ledger"
)

// TransactionsSheet is the tab name used in xlsx exports.
const TransactionsSheet = "Transactions"

// ContentTypeXLSX is the media type of workbooks written by WriteXLSX.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteXLSX writes transactions as a single-sheet workbook.
func WriteXLSX(w io.Writer, txs []domain.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TransactionsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, row := range BuildRows(ledger.Project(txs)) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(TransactionsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(TransactionsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
