// Package export renders a stored grid search as CSV or XLSX for use in
// spreadsheets and client reports.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/rankgrid/internal/model"
)

var competitorHeader = []string{
	"name", "place_id", "rating", "reviews", "address", "phone",
	"appearances", "avg_rank", "best_rank", "worst_rank", "coverage_pct",
	"top3", "top10", "first_place",
	"north", "south", "east", "west", "center",
}

func competitorRow(c model.CompetitorRecord) []string {
	return []string{
		c.Name,
		c.PlaceID,
		strconv.FormatFloat(c.Rating, 'f', 1, 64),
		strconv.Itoa(c.Reviews),
		c.Address,
		c.Phone,
		strconv.Itoa(c.Appearances),
		strconv.FormatFloat(c.AvgRank, 'f', 1, 64),
		strconv.Itoa(c.BestRank),
		strconv.Itoa(c.WorstRank),
		strconv.FormatFloat(c.Coverage, 'f', 1, 64),
		strconv.Itoa(c.Top3Count),
		strconv.Itoa(c.Top10Count),
		strconv.Itoa(c.FirstPlaceCount),
		strconv.Itoa(c.NorthAppearances),
		strconv.Itoa(c.SouthAppearances),
		strconv.Itoa(c.EastAppearances),
		strconv.Itoa(c.WestAppearances),
		strconv.Itoa(c.CenterAppearances),
	}
}

// CompetitorsCSV writes the competitor leaderboard as CSV.
func CompetitorsCSV(w io.Writer, result *model.GridSearchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(competitorHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, c := range result.Competitors {
		if err := cw.Write(competitorRow(c)); err != nil {
			return eris.Wrapf(err, "export: write csv row for %s", c.Name)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

var cellHeader = []string{
	"grid_row", "grid_col", "lat", "lng", "target_rank", "total_results",
}

// CellsCSV writes the per-point grid outcomes as CSV. A not-found target
// rank is left blank rather than written as the sentinel.
func CellsCSV(w io.Writer, result *model.GridSearchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cellHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, p := range result.GridPoints {
		rank := ""
		if p.TargetRank != model.NotFoundRank {
			rank = strconv.Itoa(p.TargetRank)
		}
		row := []string{
			strconv.Itoa(p.GridRow),
			strconv.Itoa(p.GridCol),
			strconv.FormatFloat(p.Lat, 'f', 6, 64),
			strconv.FormatFloat(p.Lng, 'f', 6, 64),
			rank,
			strconv.Itoa(p.TotalResults),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// Workbook writes the full search as an XLSX workbook with a competitor
// sheet and a grid cell sheet.
func Workbook(path string, result *model.GridSearchResult) error {
	f := xlsx.NewFile()

	comp, err := f.AddSheet("Competitors")
	if err != nil {
		return eris.Wrap(err, "export: add competitors sheet")
	}
	writeStringRow(comp, competitorHeader)
	for _, c := range result.Competitors {
		writeStringRow(comp, competitorRow(c))
	}

	cells, err := f.AddSheet("Grid")
	if err != nil {
		return eris.Wrap(err, "export: add grid sheet")
	}
	writeStringRow(cells, cellHeader)
	for _, p := range result.GridPoints {
		row := cells.AddRow()
		row.AddCell().SetInt(p.GridRow)
		row.AddCell().SetInt(p.GridCol)
		row.AddCell().SetFloat(p.Lat)
		row.AddCell().SetFloat(p.Lng)
		rankCell := row.AddCell()
		if p.TargetRank != model.NotFoundRank {
			rankCell.SetInt(p.TargetRank)
		}
		row.AddCell().SetInt(p.TotalResults)
	}

	return eris.Wrapf(f.Save(path), "export: save workbook %s", path)
}

func writeStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
