package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tsakani/alama/core"
)

const (
	orderingParam = "ordering"
	pageParam     = "page"
	pageSizeParam = "page_size"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindPagination reads the page window from the query string; out-of-range
// values fall back to the defaults via Pagination.Normalize.
func bindPagination(ctx echo.Context) core.Pagination {
	var pg core.Pagination
	if v, err := strconv.Atoi(ctx.QueryParam(pageParam)); err == nil {
		pg.Page = v
	}
	if v, err := strconv.Atoi(ctx.QueryParam(pageSizeParam)); err == nil {
		pg.PageSize = v
	}
	return pg.Normalize()
}
