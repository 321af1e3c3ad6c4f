package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/pagekit/internal/repository"
	"github.com/maxviazov/pagekit/internal/service"
)

// pageFromQuery reads ?page=&page_size=. Missing values stay zero and are defaulted by
// the service layer; malformed ones are reported per field.
func pageFromQuery(c *gin.Context) (repository.Page, []service.FieldError) {
	var (
		p     repository.Page
		ferrs []service.FieldError
	)
	for _, q := range []struct {
		name string
		dst  *int
	}{
		{"page", &p.Page},
		{"page_size", &p.PageSize},
	} {
		raw, ok := c.GetQuery(q.name)
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			ferrs = append(ferrs, service.FieldError{Field: q.name, Message: "must be an integer"})
			continue
		}
		*q.dst = n
	}
	return p, ferrs
}

// tagsFromQuery accepts both ?tag=a&tag=b and ?tag=a,b.
func tagsFromQuery(c *gin.Context) []string {
	var tags []string
	for _, v := range c.QueryArray("tag") {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func idParam(c *gin.Context, name string) (int64, []service.FieldError) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, []service.FieldError{{Field: name, Message: "must be an integer"}}
	}
	return id, nil
}
