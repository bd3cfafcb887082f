// Package tradelog filters, sorts and paginates the trades of a report.
package tradelog

import (
	"sort"
	"strings"

	"screener/model"
)

// DefaultPageSize applies when Params.PageSize is not positive.
const DefaultPageSize = 25

// Params are the live table parameters owned by the caller.
type Params struct {
	Search        string    `json:"search"`
	Sort          SortState `json:"sort"`
	Page          int       `json:"page"`
	PageSize      int       `json:"page_size"`
	IncludeFailed bool      `json:"include_failed"`
}

// Page is one slice of the filtered and sorted trade list.
type Page struct {
	Trades        []model.TradeOutcome `json:"trades"`
	Page          int                  `json:"page"`
	PageSize      int                  `json:"page_size"`
	TotalPages    int                  `json:"total_pages"`
	TotalFiltered int                  `json:"total_filtered"`
}

// Query runs filter, then sort, then paginate. trades is never modified.
// An empty sort key means DefaultSort.
func Query(trades []model.TradeOutcome, p Params) (Page, error) {
	s := p.Sort
	if s.Key == "" {
		s = DefaultSort
	} else if s.Direction == "" {
		s.Direction = Asc
	}
	if err := s.validate(); err != nil {
		return Page{}, err
	}

	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	rows := filter(trades, p.Search, p.IncludeFailed)
	sortRows(rows, s)

	totalPages := len(rows) / size
	if len(rows)%size != 0 {
		totalPages++
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	if maxPage := max(1, totalPages); page > maxPage {
		page = maxPage
	}

	start := (page - 1) * size
	end := start + min(size, len(rows)-start)
	out := make([]model.TradeOutcome, 0, end-start)
	for _, r := range rows[start:end] {
		out = append(out, *r.trade)
	}

	return Page{
		Trades:        out,
		Page:          page,
		PageSize:      size,
		TotalPages:    totalPages,
		TotalFiltered: len(rows),
	}, nil
}

type row struct {
	trade *model.TradeOutcome
	key   value
}

func filter(trades []model.TradeOutcome, search string, includeFailed bool) []row {
	needle := strings.ToLower(strings.TrimSpace(search))
	rows := make([]row, 0, len(trades))
	for i := range trades {
		t := &trades[i]
		if !includeFailed && !t.IsSuccess() {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(t.Symbol), needle) {
			continue
		}
		rows = append(rows, row{trade: t})
	}
	return rows
}

func sortRows(rows []row, s SortState) {
	ex := extractors[s.Key]
	for i := range rows {
		rows[i].key = ex.get(rows[i].trade)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].key, rows[j].key
		switch {
		case a.null:
			return false
		case b.null:
			return true
		}
		c := compare(ex.kind, a, b)
		if s.Direction == Desc {
			return c > 0
		}
		return c < 0
	})
}
