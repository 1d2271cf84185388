package view

import (
	"github.com/formbricks/lookalike/internal/models"
)

// Layout decodes every record's image and places it row-major into rows of Columns cells,
// keeping the input order. The first undecodable payload aborts the layout.
func Layout(records []models.Record) ([]Row, error) {
	rows := make([]Row, 0, (len(records)+Columns-1)/Columns)

	for i, r := range records {
		data, err := r.Image()
		if err != nil {
			return nil, err
		}

		row, col := i/Columns, i%Columns
		if col == 0 {
			rows = append(rows, Row{Cells: make([]Cell, 0, Columns)})
		}

		rows[row].Cells = append(rows[row].Cells, Cell{
			Record:      r,
			Image:       newImage(data),
			Row:         row,
			Column:      col,
			ActionLabel: ActionLabel,
		})
	}

	return rows, nil
}
