package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// maxExportRows bounds a single export so a large organization cannot
// produce an unbounded response. Callers should narrow the filters.
const maxExportRows = 1000

var ErrTooManyRows = errors.New("export exceeds the row limit, narrow the filters")

// ExportRows loads requests matching the filter, newest first. It returns
// ErrTooManyRows when the result would exceed maxExportRows.
func (s *Service) ExportRows(ctx context.Context, orgID string, f ExportFilter) ([]ExportRow, error) {
	query := `
    SELECT e.first_name || ' ' || e.last_name,
           e.email,
           COALESCE(l.name, ''),
           r.type, r.status,
           r.start_date, r.end_date,
           r.days_off, r.hours_off, COALESCE(r.hours_requested, 0),
           r.created_at
    FROM requests r
    JOIN employees e ON e.id = r.employee_id
    LEFT JOIN locations l ON l.id = e.location_id
    WHERE r.organization_id = $1
  `
	args := []any{orgID}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		query += " AND (e.first_name || ' ' || e.last_name ILIKE $" + n + " OR e.email ILIKE $" + n + ")"
	}
	if f.Type != "" {
		args = append(args, f.Type)
		query += " AND r.type = $" + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += " AND r.status = $" + strconv.Itoa(len(args))
	}
	if f.LocationID != "" {
		args = append(args, f.LocationID)
		query += " AND e.location_id = $" + strconv.Itoa(len(args))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		query += " AND COALESCE(r.end_date, r.start_date) >= $" + strconv.Itoa(len(args))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		query += " AND r.start_date <= $" + strconv.Itoa(len(args))
	}

	query += " ORDER BY r.created_at DESC LIMIT " + strconv.Itoa(maxExportRows+1)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(
			&row.EmployeeName, &row.EmployeeEmail, &row.Location,
			&row.Type, &row.Status,
			&row.StartDate, &row.EndDate,
			&row.DaysOff, &row.HoursOff, &row.HoursRequested,
			&row.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) > maxExportRows {
		return nil, ErrTooManyRows
	}
	return out, nil
}

var exportHeader = []string{
	"Employee", "Email", "Location", "Type", "Status",
	"Start Date", "End Date", "Days Off", "Hours Off", "Requested",
}

func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.EmployeeName,
			r.EmployeeEmail,
			r.Location,
			TypeLabel(r.Type),
			StatusLabel(r.Status),
			r.StartDate.Format("2006-01-02"),
			formatEndDate(r.EndDate),
			strconv.FormatFloat(r.DaysOff, 'f', -1, 64),
			strconv.FormatFloat(r.HoursOff, 'f', -1, 64),
			strconv.Itoa(r.HoursRequested),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WritePDF(w io.Writer, orgName string, rows []ExportRow) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Time Off Requests")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("%s, exported %s, %d requests", orgName, time.Now().Format("2006-01-02"), len(rows)))
	pdf.Ln(10)

	widths := []float64{50, 60, 35, 25, 22, 24, 24, 18, 18}
	headers := []string{"Employee", "Email", "Location", "Type", "Status", "Start", "End", "Days", "Hours"}

	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, r := range rows {
		cells := []string{
			r.EmployeeName,
			r.EmployeeEmail,
			r.Location,
			TypeLabel(r.Type),
			StatusLabel(r.Status),
			r.StartDate.Format("2006-01-02"),
			formatEndDate(r.EndDate),
			strconv.FormatFloat(r.DaysOff, 'f', -1, 64),
			strconv.FormatFloat(r.HoursOff, 'f', -1, 64),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

func TypeLabel(t string) string {
	switch t {
	case "days_off":
		return "Days Off"
	case "hours_off":
		return "Hours Off"
	case "sick_leave":
		return "Sick Leave"
	}
	return t
}

func StatusLabel(s string) string {
	switch s {
	case "pending":
		return "Pending"
	case "approved":
		return "Approved"
	case "denied":
		return "Denied"
	}
	return s
}

func formatEndDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
