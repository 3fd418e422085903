package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"actilog/internal/model"
)

const topClientsLimit = 50

// Options selects the optional sheets a report carries. Every report gets
// Summary, Detailed Entries, By User, By Courtier and By Type d'acte.
type Options struct {
	Title              string
	DailyBreakdown     bool
	MonthlyBreakdown   bool
	QuarterlyBreakdown bool
	TopClients         bool
}

// Workbook builds an xlsx report from the given entries. The caller owns
// the returned file and must Close it.
func Workbook(entries []model.Entry, opts Options) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := build(f, entries, opts); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func build(f *excelize.File, entries []model.Entry, opts Options) error {
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return err
	}
	if err := writeSummary(f, entries, opts.Title); err != nil {
		return err
	}
	if opts.DailyBreakdown {
		if err := addSheet(f, "Daily Breakdown", dailyBreakdownRows(entries)); err != nil {
			return err
		}
	}
	if opts.MonthlyBreakdown {
		if err := addSheet(f, "Monthly Breakdown", monthlyBreakdownRows(entries)); err != nil {
			return err
		}
	}
	if opts.QuarterlyBreakdown {
		if err := addSheet(f, "Quarterly Breakdown", quarterlyBreakdownRows(entries)); err != nil {
			return err
		}
	}
	if err := addSheet(f, "Detailed Entries", entryRows(entries)); err != nil {
		return err
	}
	if err := f.SetColWidth("Detailed Entries", "A", "K", 18); err != nil {
		return err
	}
	if err := addSheet(f, "By User", userRows(entries)); err != nil {
		return err
	}
	if err := addSheet(f, "By Courtier", courtierRows(entries)); err != nil {
		return err
	}
	if err := addSheet(f, "By Type d'acte", typeRows(entries)); err != nil {
		return err
	}
	if opts.TopClients {
		if err := addSheet(f, "Top Clients", topClientRows(entries)); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, entries []model.Entry, title string) error {
	totalMinutes := 0
	users := map[uint]struct{}{}
	courtiers := map[uint]struct{}{}
	clients := map[string]struct{}{}
	byType := map[model.ActeType]int{}
	for i := range entries {
		e := &entries[i]
		totalMinutes += e.Minutes
		users[e.UserID] = struct{}{}
		courtiers[e.CourtierID] = struct{}{}
		if e.ClientName != "" {
			clients[e.ClientName] = struct{}{}
		}
		byType[e.ActeType] += e.Minutes
	}

	avg := 0.0
	if len(entries) > 0 {
		avg = roundHundredth(float64(totalMinutes) / float64(len(entries)))
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Report Title", title},
		{"Generated", time.Now().Format("2006-01-02 15:04:05")},
		{},
		{"Total Entries", len(entries)},
		{"Total Minutes", totalMinutes},
		{"Total Hours", hours(totalMinutes)},
		{"Average Minutes per Entry", avg},
		{},
		{"Unique Users", len(users)},
		{"Unique Courtiers", len(courtiers)},
		{"Unique Clients", len(clients)},
		{},
		{"Breakdown by Type d'acte", ""},
	}
	for _, t := range model.ActeTypes() {
		minutes, ok := byType[t]
		if !ok {
			continue
		}
		share := 0.0
		if totalMinutes > 0 {
			share = float64(minutes) * 100 / float64(totalMinutes)
		}
		rows = append(rows, []interface{}{
			"  " + string(t),
			fmt.Sprintf("%d min (%.1f%%)", minutes, share),
		})
	}

	for i, row := range rows {
		if err := setRow(f, "Summary", i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth("Summary", "A", "A", 28); err != nil {
		return err
	}
	return f.SetColWidth("Summary", "B", "B", 24)
}

func entryRows(entries []model.Entry) [][]interface{} {
	rows := [][]interface{}{{
		"Date", "Time", "User", "Courtier", "Minutes", "Hours",
		"Type d'acte", "Acte de gestion", "Dossier", "Client", "Description",
	}}
	for i := range entries {
		e := &entries[i]
		rows = append(rows, []interface{}{
			e.Date.Format(model.DateLayout),
			e.Time,
			e.User.FullName,
			e.Courtier.Name,
			e.Minutes,
			hours(e.Minutes),
			string(e.ActeType),
			e.ActeGestion,
			e.Dossier,
			e.ClientName,
			e.Description,
		})
	}
	return rows
}

func userRows(entries []model.Entry) [][]interface{} {
	type userAgg struct {
		name    string
		entries int
		minutes int
		byType  map[model.ActeType]int
	}
	aggs := map[uint]*userAgg{}
	for i := range entries {
		e := &entries[i]
		a, ok := aggs[e.UserID]
		if !ok {
			a = &userAgg{name: e.User.FullName, byType: map[model.ActeType]int{}}
			aggs[e.UserID] = a
		}
		a.entries++
		a.minutes += e.Minutes
		a.byType[e.ActeType] += e.Minutes
	}

	sorted := make([]*userAgg, 0, len(aggs))
	for _, a := range aggs {
		sorted = append(sorted, a)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].minutes > sorted[j].minutes })

	header := []interface{}{"User", "Total Entries", "Total Minutes", "Total Hours", "Avg Minutes/Entry"}
	for _, t := range model.ActeTypes() {
		header = append(header, string(t))
	}
	rows := [][]interface{}{header}
	for _, a := range sorted {
		row := []interface{}{
			a.name,
			a.entries,
			a.minutes,
			hours(a.minutes),
			roundHundredth(float64(a.minutes) / float64(a.entries)),
		}
		for _, t := range model.ActeTypes() {
			row = append(row, a.byType[t])
		}
		rows = append(rows, row)
	}
	return rows
}

func courtierRows(entries []model.Entry) [][]interface{} {
	type courtierAgg struct {
		name    string
		entries int
		minutes int
		users   map[string]struct{}
	}
	aggs := map[uint]*courtierAgg{}
	for i := range entries {
		e := &entries[i]
		a, ok := aggs[e.CourtierID]
		if !ok {
			a = &courtierAgg{name: e.Courtier.Name, users: map[string]struct{}{}}
			aggs[e.CourtierID] = a
		}
		a.entries++
		a.minutes += e.Minutes
		a.users[e.User.FullName] = struct{}{}
	}

	sorted := make([]*courtierAgg, 0, len(aggs))
	for _, a := range aggs {
		sorted = append(sorted, a)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].minutes > sorted[j].minutes })

	rows := [][]interface{}{{
		"Courtier", "Total Entries", "Total Minutes", "Total Hours", "Unique Users", "Users",
	}}
	for _, a := range sorted {
		names := make([]string, 0, len(a.users))
		for name := range a.users {
			names = append(names, name)
		}
		sort.Strings(names)
		rows = append(rows, []interface{}{
			a.name, a.entries, a.minutes, hours(a.minutes), len(a.users), strings.Join(names, ", "),
		})
	}
	return rows
}

func typeRows(entries []model.Entry) [][]interface{} {
	type typeAgg struct {
		entries   int
		minutes   int
		users     map[uint]struct{}
		courtiers map[uint]struct{}
	}
	aggs := map[model.ActeType]*typeAgg{}
	for i := range entries {
		e := &entries[i]
		a, ok := aggs[e.ActeType]
		if !ok {
			a = &typeAgg{users: map[uint]struct{}{}, courtiers: map[uint]struct{}{}}
			aggs[e.ActeType] = a
		}
		a.entries++
		a.minutes += e.Minutes
		a.users[e.UserID] = struct{}{}
		a.courtiers[e.CourtierID] = struct{}{}
	}

	rows := [][]interface{}{{
		"Type d'acte", "Total Entries", "Total Minutes", "Total Hours", "Unique Users", "Unique Courtiers",
	}}
	for _, t := range model.ActeTypes() {
		a, ok := aggs[t]
		if !ok {
			continue
		}
		rows = append(rows, []interface{}{
			string(t), a.entries, a.minutes, hours(a.minutes), len(a.users), len(a.courtiers),
		})
	}
	return rows
}

func dailyBreakdownRows(entries []model.Entry) [][]interface{} {
	type dayAgg struct {
		day     time.Time
		entries int
		minutes int
	}
	aggs := map[string]*dayAgg{}
	for i := range entries {
		e := &entries[i]
		key := e.Date.Format(model.DateLayout)
		a, ok := aggs[key]
		if !ok {
			a = &dayAgg{day: e.Date}
			aggs[key] = a
		}
		a.entries++
		a.minutes += e.Minutes
	}

	sorted := make([]*dayAgg, 0, len(aggs))
	for _, a := range aggs {
		sorted = append(sorted, a)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].day.Before(sorted[j].day) })

	rows := [][]interface{}{{"Date", "Day", "Entries", "Minutes", "Hours"}}
	for _, a := range sorted {
		rows = append(rows, []interface{}{
			a.day.Format(model.DateLayout), a.day.Format("Monday"), a.entries, a.minutes, hours(a.minutes),
		})
	}
	return rows
}

func monthlyBreakdownRows(entries []model.Entry) [][]interface{} {
	type monthAgg struct {
		month   time.Time
		entries int
		minutes int
	}
	aggs := map[string]*monthAgg{}
	for i := range entries {
		e := &entries[i]
		key := e.Date.Format("2006-01")
		a, ok := aggs[key]
		if !ok {
			a = &monthAgg{month: time.Date(e.Date.Year(), e.Date.Month(), 1, 0, 0, 0, 0, e.Date.Location())}
			aggs[key] = a
		}
		a.entries++
		a.minutes += e.Minutes
	}

	sorted := make([]*monthAgg, 0, len(aggs))
	for _, a := range aggs {
		sorted = append(sorted, a)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].month.Before(sorted[j].month) })

	rows := [][]interface{}{{"Month", "Entries", "Minutes", "Hours"}}
	for _, a := range sorted {
		rows = append(rows, []interface{}{
			a.month.Format("January 2006"), a.entries, a.minutes, hours(a.minutes),
		})
	}
	return rows
}

func quarterlyBreakdownRows(entries []model.Entry) [][]interface{} {
	type quarterAgg struct {
		key     string
		entries int
		minutes int
	}
	aggs := map[string]*quarterAgg{}
	for i := range entries {
		e := &entries[i]
		quarter := (int(e.Date.Month())-1)/3 + 1
		key := fmt.Sprintf("%d Q%d", e.Date.Year(), quarter)
		a, ok := aggs[key]
		if !ok {
			a = &quarterAgg{key: key}
			aggs[key] = a
		}
		a.entries++
		a.minutes += e.Minutes
	}

	sorted := make([]*quarterAgg, 0, len(aggs))
	for _, a := range aggs {
		sorted = append(sorted, a)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].key < sorted[j].key })

	rows := [][]interface{}{{"Quarter", "Entries", "Minutes", "Hours"}}
	for _, a := range sorted {
		rows = append(rows, []interface{}{a.key, a.entries, a.minutes, hours(a.minutes)})
	}
	return rows
}

func topClientRows(entries []model.Entry) [][]interface{} {
	type clientAgg struct {
		name      string
		entries   int
		minutes   int
		users     map[uint]struct{}
		courtiers map[uint]struct{}
	}
	aggs := map[string]*clientAgg{}
	for i := range entries {
		e := &entries[i]
		if e.ClientName == "" {
			continue
		}
		a, ok := aggs[e.ClientName]
		if !ok {
			a = &clientAgg{name: e.ClientName, users: map[uint]struct{}{}, courtiers: map[uint]struct{}{}}
			aggs[e.ClientName] = a
		}
		a.entries++
		a.minutes += e.Minutes
		a.users[e.UserID] = struct{}{}
		a.courtiers[e.CourtierID] = struct{}{}
	}

	sorted := make([]*clientAgg, 0, len(aggs))
	for _, a := range aggs {
		sorted = append(sorted, a)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].minutes > sorted[j].minutes })
	if len(sorted) > topClientsLimit {
		sorted = sorted[:topClientsLimit]
	}

	rows := [][]interface{}{{
		"Client Name", "Total Entries", "Total Minutes", "Total Hours", "Unique Users", "Unique Courtiers",
	}}
	for _, a := range sorted {
		rows = append(rows, []interface{}{
			a.name, a.entries, a.minutes, hours(a.minutes), len(a.users), len(a.courtiers),
		})
	}
	return rows
}

func addSheet(f *excelize.File, name string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, name, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// hours converts minutes to a decimal hour count for spreadsheet cells.
func hours(minutes int) float64 {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2).InexactFloat64()
}

func roundHundredth(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
