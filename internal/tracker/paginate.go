package tracker

import (
	"net/url"
	"strconv"

	"github.com/dharsanguruparan/jobtrack/internal/model"
)

// onEachSide is the number of numbered links kept on each side of the current
// page once the page range is large enough to be windowed.
const onEachSide = 3

// Page is one slice of a filtered listing.
type Page struct {
	Items   []model.JobRecord
	Total   int
	Current int
	PerPage int
}

// LastPage is never below 1, even for an empty listing.
func (p *Page) LastPage() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// Link is one navigation control. URL is nil for disabled controls and ellipses.
type Link struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// Paginator is the listing payload handed to the front end.
type Paginator struct {
	CurrentPage  int               `json:"current_page"`
	Data         []model.JobRecord `json:"data"`
	FirstPageURL string            `json:"first_page_url"`
	From         *int              `json:"from"`
	LastPage     int               `json:"last_page"`
	LastPageURL  string            `json:"last_page_url"`
	Links        []Link            `json:"links"`
	NextPageURL  *string           `json:"next_page_url"`
	Path         string            `json:"path"`
	PerPage      int               `json:"per_page"`
	PrevPageURL  *string           `json:"prev_page_url"`
	To           *int              `json:"to"`
	Total        int               `json:"total"`
}

// NewPaginator builds navigation for p. Page URLs keep every parameter of query
// except page.
func NewPaginator(p *Page, path string, query url.Values) *Paginator {
	last := p.LastPage()
	pageURL := func(n int) string {
		q := url.Values{}
		for k, v := range query {
			if k != "page" {
				q[k] = v
			}
		}
		q.Set("page", strconv.Itoa(n))
		return path + "?" + q.Encode()
	}
	data := p.Items
	if data == nil {
		data = []model.JobRecord{}
	}
	out := &Paginator{
		CurrentPage:  p.Current,
		Data:         data,
		FirstPageURL: pageURL(1),
		LastPage:     last,
		LastPageURL:  pageURL(last),
		Path:         path,
		PerPage:      p.PerPage,
		Total:        p.Total,
	}
	if len(data) > 0 {
		from := (p.Current-1)*p.PerPage + 1
		to := from + len(data) - 1
		out.From, out.To = &from, &to
	}
	if p.Current > 1 {
		u := pageURL(p.Current - 1)
		out.PrevPageURL = &u
	}
	if p.Current < last {
		u := pageURL(p.Current + 1)
		out.NextPageURL = &u
	}

	out.Links = append(out.Links, Link{URL: out.PrevPageURL, Label: "&laquo; Previous"})
	for _, n := range Window(p.Current, last) {
		if n == 0 {
			out.Links = append(out.Links, Link{Label: "..."})
			continue
		}
		u := pageURL(n)
		out.Links = append(out.Links, Link{URL: &u, Label: strconv.Itoa(n), Active: n == p.Current})
	}
	out.Links = append(out.Links, Link{URL: out.NextPageURL, Label: "Next &raquo;"})
	return out
}

// Window lists the page numbers to render for the current page, with 0 standing
// for an ellipsis. Small ranges are listed whole; larger ones keep the first two
// pages, the last two pages and a slider around the current page.
func Window(current, last int) []int {
	if last < onEachSide*2+8 {
		return pageRange(1, last)
	}
	window := onEachSide + 4
	var out []int
	switch {
	case current <= window:
		out = append(out, pageRange(1, window+onEachSide)...)
		out = append(out, 0)
		out = append(out, pageRange(last-1, last)...)
	case current > last-window:
		out = append(out, 1, 2, 0)
		out = append(out, pageRange(last-(window+onEachSide-1), last)...)
	default:
		out = append(out, 1, 2, 0)
		out = append(out, pageRange(current-onEachSide, current+onEachSide)...)
		out = append(out, 0)
		out = append(out, pageRange(last-1, last)...)
	}
	return out
}

func pageRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
