package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iho/palletledger/internal/domain"
)

const (
	// ContentType of the workbook written by WriteStatement.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	entriesSheet = "Buchungen"
	saldoSheet   = "Saldo"

	dateLayout = "02.01.2006 15:04"
)

var entryHeaders = []string{
	"Datum", "Belegnummer", "Konto Nr", "Richtung",
	"EUP", "GB", "TMB1", "TMB2",
	"Kommentar", "Erfasst von",
}

// Filter restricts the entries written to the statement. The zero value
// writes every entry.
type Filter struct {
	Direction domain.Direction
}

func (f Filter) apply(entries []*domain.Entry) []*domain.Entry {
	if f.Direction == "" {
		return entries
	}
	return domain.FilterEntries(entries, f.Direction)
}

// WriteStatement writes the account statement of partner for the period of
// balance as an xlsx workbook to w.
func WriteStatement(w io.Writer, partner *domain.Partner, balance *domain.Balance, filter Filter) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", entriesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	entries := filter.apply(balance.Entries)
	if err := writeEntries(f, entries); err != nil {
		return err
	}

	if _, err := f.NewSheet(saldoSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", saldoSheet, err)
	}
	if err := writeSaldo(f, partner, balance); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeEntries(f *excelize.File, entries []*domain.Entry) error {
	if err := setRow(f, entriesSheet, 1, toRow(entryHeaders)); err != nil {
		return err
	}

	for i, e := range entries {
		datum := ""
		if e.HasDatum() {
			datum = e.Datum.Format(dateLayout)
		}

		row := []any{
			datum,
			e.Belegnummer,
			e.KontoSeq,
			string(e.Direction),
			e.Quantities.EUP,
			e.Quantities.GB,
			e.Quantities.TMB1,
			e.Quantities.TMB2,
			e.Comment,
			e.RecordedBy,
		}
		if err := setRow(f, entriesSheet, i+2, row); err != nil {
			return err
		}
	}

	totals := domain.SumEntries(entries)
	totalRow := []any{"Summe", nil, nil, nil, totals.EUP, totals.GB, totals.TMB1, totals.TMB2}
	if err := setRow(f, entriesSheet, len(entries)+2, totalRow); err != nil {
		return err
	}

	widths := map[string]float64{"A": 17, "B": 13, "C": 9, "D": 11, "I": 40, "J": 18}
	for col, width := range widths {
		if err := f.SetColWidth(entriesSheet, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}

func writeSaldo(f *excelize.File, partner *domain.Partner, b *domain.Balance) error {
	header := []any{"Partner", partner.Name}
	if err := setRow(f, saldoSheet, 1, header); err != nil {
		return err
	}
	period := []any{"Zeitraum", formatDay(b.PeriodStart) + " - " + formatDay(b.PeriodEnd)}
	if err := setRow(f, saldoSheet, 2, period); err != nil {
		return err
	}

	columns := []any{""}
	for _, c := range domain.Categories {
		columns = append(columns, string(c))
	}
	if err := setRow(f, saldoSheet, 4, columns); err != nil {
		return err
	}

	lines := []struct {
		label string
		q     domain.Quantities
	}{
		{"Anfangssaldo", b.SaldoStart},
		{"Bewegung", b.Movement},
		{"Endsaldo", b.SaldoEnd},
		{"Summe Eingang", b.SumsInbound},
		{"Summe Ausgang", b.SumsOutbound},
	}
	for i, line := range lines {
		row := []any{line.label}
		for _, c := range domain.Categories {
			row = append(row, line.q.Get(c))
		}
		if err := setRow(f, saldoSheet, i+5, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(saldoSheet, "A", "A", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toRow(s []string) []any {
	row := make([]any, len(s))
	for i, v := range s {
		row[i] = v
	}
	return row
}

func formatDay(t time.Time) string {
	return t.Format("02.01.2006")
}

// Filename returns the download name of a statement, e.g.
// Palettenkonto_Holz Wagner KG_2024-01-01_2024-01-31.xlsx.
func Filename(partner *domain.Partner, start, end time.Time) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, partner.Name)
	return fmt.Sprintf("Palettenkonto_%s_%s_%s.xlsx", name, start.Format("2006-01-02"), end.Format("2006-01-02"))
}
