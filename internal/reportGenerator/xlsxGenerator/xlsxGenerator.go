package xlsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gmarchetti87/portfolio_report/internal/model"
	"github.com/gmarchetti87/portfolio_report/utils"
	"github.com/xuri/excelize/v2"
)

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

// Generate renders the position table and the annual breakdown to a
// workbook, one sheet each.
func (g *XLSXGenerator) Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	if len(report.Positions) == 0 {
		return nil, "", errors.New("empty report")
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err := g.fillPositionsSheet(f, report); err != nil {
		return nil, "", err
	}
	if err := g.fillAnnualSheet(f, report); err != nil {
		return nil, "", err
	}
	if err := g.fillOperationsSheet(f, report); err != nil {
		return nil, "", err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XLSXGenerator) headerStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
}

func (g *XLSXGenerator) fillPositionsSheet(f *excelize.File, report model.PortfolioReport) error {
	const sheetName = "Portafoglio"

	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "L1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "A1", "Portafoglio Investimenti")

	styleID, err := g.headerStyle(f, "#cfe2f3")
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	headers := []string{
		"Ticker", "Nome", "Quote residue", "Prezzo attuale",
		"Valore iniziale (€)", "Valore attuale (€)",
		"Guadagno lordo (€)", "Rendimento lordo (%)",
		"Costi annuali (€)", "Guadagno netto (€)",
		"Rendimento netto (%)", "CAGR (%)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellStr(sheetName, cell, h)
	}

	for i, pos := range report.Positions {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), pos.Ticker)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), pos.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), pos.Quantity.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), pos.CurrentPrice.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), pos.InitialValue.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), pos.CurrentValue.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), pos.GrossGain.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), pos.GrossReturn.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), pos.AnnualCost.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), pos.NetGain.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("K%d", row), pos.NetReturn.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("L%d", row), pos.CAGR.InexactFloat64())
	}

	return nil
}

func (g *XLSXGenerator) fillAnnualSheet(f *excelize.File, report model.PortfolioReport) error {
	const sheetName = "Per anno"

	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "L1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "A1", "Portafoglio per Anno")

	styleID, err := g.headerStyle(f, "#d9ead3")
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	headers := []string{
		"Anno", "Valore iniziale (€)", "Soldi inseriti (€)", "Soldi prelevati (€)",
		"Valore finale (€)", "Guadagno anno (€)", "Rendimento anno (%)",
		"CAGR anno (%)", "Costi annuali (€)", "Guadagno netto anno (€)",
		"Rendimento netto anno (%)", "CAGR netto anno (%)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellStr(sheetName, cell, h)
	}

	for i, year := range report.Annual {
		row := i + 3
		_ = f.SetCellInt(sheetName, fmt.Sprintf("A%d", row), int(year.Year))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), year.InitialValue.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), year.Inflows.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), year.Outflows.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), year.FinalValue.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), year.Gain.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), year.Return.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), year.CAGR.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), year.AnnualCost.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), year.NetGain.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("K%d", row), year.NetReturn.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("L%d", row), year.NetCAGR.InexactFloat64())
	}

	return nil
}

func (g *XLSXGenerator) fillOperationsSheet(f *excelize.File, report model.PortfolioReport) error {
	const sheetName = "Operazioni"

	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "G1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "A1", "Registro Operazioni")

	styleID, err := g.headerStyle(f, "#fff2cc")
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	headers := []string{
		"Data", "Titolo", "Ticker", "Operazione", "Quote",
		"Importo scambiato (€)", "Valore investito (€)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellStr(sheetName, cell, h)
	}

	for i, op := range report.Operations {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), op.Date.Format("2006-01-02"))
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), op.Name)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", row), op.Ticker)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", row), op.Side.String())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), op.Quantity.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), op.Amount.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), op.InvestedValue.InexactFloat64())
	}

	return nil
}
