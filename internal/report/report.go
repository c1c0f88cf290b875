// Package report builds tabular attendance reports and exports them to CSV
// and XLSX files.
package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Report is a rendered table ready for printing or export.
type Report struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Generator builds reports from the repositories and the attendance service.
type Generator struct {
	students   database.StudentReader
	attendance database.AttendanceReader
	svc        *attendance.Service
}

// NewGenerator creates a report generator.
func NewGenerator(students database.StudentReader, att database.AttendanceReader, svc *attendance.Service) *Generator {
	return &Generator{students: students, attendance: att, svc: svc}
}

// Daily lists everyone marked on one date.
func (g *Generator) Daily(ctx context.Context, date string) (*Report, error) {
	records, err := g.attendance.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("could not list attendance: %w", err)
	}

	report := &Report{
		Title:   fmt.Sprintf("Daily Attendance - %s", date),
		Columns: []string{"ID", "Name", "Department", "Batch", "Time", "Status"},
	}
	for _, r := range records {
		report.Rows = append(report.Rows, []string{r.StudentID, r.Name, r.Department, r.Batch, r.Time, r.Status})
	}
	return report, nil
}

// StudentHistory lists one student's records, optionally bounded by dates.
func (g *Generator) StudentHistory(ctx context.Context, studentID, from, to string) (*Report, error) {
	st, err := g.students.Get(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("could not load student: %w", err)
	}
	records, err := g.attendance.History(ctx, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("could not load history: %w", err)
	}

	report := &Report{
		Title:   fmt.Sprintf("Attendance History - %s (%s)", st.Name, st.StudentID),
		Columns: []string{"Date", "Time", "Status"},
	}
	for _, r := range records {
		report.Rows = append(report.Rows, []string{r.Date, r.Time, r.Status})
	}
	return report, nil
}

// Range lists records within a date range with optional department and
// batch filters.
func (g *Generator) Range(ctx context.Context, from, to, department, batch string) (*Report, error) {
	records, err := g.attendance.ListRange(ctx, from, to, department, batch)
	if err != nil {
		return nil, fmt.Errorf("could not list attendance: %w", err)
	}

	report := &Report{
		Title:   fmt.Sprintf("Attendance %s to %s", from, to),
		Columns: []string{"ID", "Name", "Department", "Batch", "Date", "Time", "Status"},
	}
	for _, r := range records {
		report.Rows = append(report.Rows, []string{r.StudentID, r.Name, r.Department, r.Batch, r.Date, r.Time, r.Status})
	}
	return report, nil
}

// Departments summarizes attendance per department over all session days.
func (g *Generator) Departments(ctx context.Context) (*Report, error) {
	students, err := g.students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list students: %w", err)
	}
	sessionDays, err := g.attendance.SessionDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not count session days: %w", err)
	}

	type deptStats struct {
		students    int
		presentDays int
	}
	byDept := make(map[string]*deptStats)
	var order []string
	for _, st := range students {
		dept := st.Department
		if dept == "" {
			dept = "(none)"
		}
		if _, ok := byDept[dept]; !ok {
			byDept[dept] = &deptStats{}
			order = append(order, dept)
		}
		byDept[dept].students++

		presentDays, err := g.attendance.PresentDays(ctx, st.StudentID)
		if err != nil {
			return nil, fmt.Errorf("could not count present days for %s: %w", st.StudentID, err)
		}
		byDept[dept].presentDays += presentDays
	}

	report := &Report{
		Title:   "Attendance by Department",
		Columns: []string{"Department", "Students", "Present Days", "Percentage"},
	}
	for _, dept := range order {
		s := byDept[dept]
		pct := 0.0
		if sessionDays > 0 && s.students > 0 {
			pct = float64(s.presentDays) / float64(s.students*sessionDays) * 100
		}
		report.Rows = append(report.Rows, []string{
			dept,
			strconv.Itoa(s.students),
			strconv.Itoa(s.presentDays),
			formatPercent(pct),
		})
	}
	return report, nil
}

// Defaulters lists students below the attendance threshold, worst first.
func (g *Generator) Defaulters(ctx context.Context, threshold float64) (*Report, error) {
	defaulters, err := g.svc.Defaulters(ctx, threshold)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Title:   fmt.Sprintf("Defaulters Below %s", formatPercent(threshold)),
		Columns: []string{"ID", "Name", "Department", "Batch", "Present Days", "Total Days", "Percentage"},
	}
	for _, d := range defaulters {
		report.Rows = append(report.Rows, []string{
			d.StudentID, d.Name, d.Department, d.Batch,
			strconv.Itoa(d.PresentDays),
			strconv.Itoa(d.TotalDays),
			formatPercent(d.Percentage),
		})
	}
	return report, nil
}

// Monthly summarizes per-day attendance for one calendar month.
func (g *Generator) Monthly(ctx context.Context, year int, month time.Month) (*Report, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	counts, err := g.attendance.DailyCounts(ctx, first.Format("2006-01-02"), last.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("could not load daily counts: %w", err)
	}
	total, err := g.students.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not count students: %w", err)
	}

	report := &Report{
		Title:   fmt.Sprintf("Monthly Attendance - %s %d", month, year),
		Columns: []string{"Date", "Present", "Percentage"},
	}
	for _, c := range counts {
		pct := 0.0
		if total > 0 {
			pct = float64(c.Present) / float64(total) * 100
		}
		report.Rows = append(report.Rows, []string{
			c.Date,
			strconv.Itoa(c.Present),
			formatPercent(pct),
		})
	}
	return report, nil
}

// Summary produces the overall metric table shown on the dashboard.
func (g *Generator) Summary(ctx context.Context) (*Report, error) {
	totalStudents, err := g.students.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not count students: %w", err)
	}
	totalRecords, err := g.attendance.CountRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not count records: %w", err)
	}
	sessionDays, err := g.attendance.SessionDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not count session days: %w", err)
	}

	today := time.Now().Format("2006-01-02")
	presentToday, err := g.attendance.PresentCount(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("could not count today's attendance: %w", err)
	}

	overall := 0.0
	if totalStudents > 0 && sessionDays > 0 {
		overall = float64(totalRecords) / float64(totalStudents*sessionDays) * 100
	}
	todayPct := 0.0
	if totalStudents > 0 {
		todayPct = float64(presentToday) / float64(totalStudents) * 100
	}

	return &Report{
		Title:   "Attendance Summary",
		Columns: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Students", strconv.Itoa(totalStudents)},
			{"Total Records", strconv.Itoa(totalRecords)},
			{"Session Days", strconv.Itoa(sessionDays)},
			{"Present Today", strconv.Itoa(presentToday)},
			{"Today's Attendance", formatPercent(todayPct)},
			{"Overall Attendance", formatPercent(overall)},
		},
	}, nil
}

func formatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}
