package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/maxviazov/pagekit/internal/config"
	"github.com/maxviazov/pagekit/internal/repository"
	"github.com/maxviazov/pagekit/pkg/pagination"
)

const (
	maxTitleLen  = 200
	maxAuthorLen = 100
	maxBodyLen   = 2000
	maxTags      = 10
	maxTagLen    = 32
)

// PageLimits bounds list requests. The zero value falls back to pagination.DefaultPageSize
// and no upper bound.
type PageLimits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// LimitsFromConfig reads the page bounds from the application config.
func LimitsFromConfig(cfg config.PaginationConfig) PageLimits {
	return PageLimits{DefaultPageSize: cfg.DefaultPageSize, MaxPageSize: cfg.MaxPageSize}
}

// normalize fills unset fields and rejects pages the paginators would refuse anyway,
// so clients get field errors instead of a bare 400.
func (l PageLimits) normalize(p repository.Page) (repository.Page, error) {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = l.DefaultPageSize
		if p.PageSize <= 0 {
			p.PageSize = pagination.DefaultPageSize
		}
	}

	var ferrs []FieldError
	if err := p.Validate(); err != nil {
		var verr *pagination.ValidationError
		if !errors.As(err, &verr) {
			return p, err
		}
		ferrs = append(ferrs, FieldError{Field: verr.JSONField(), Message: verr.Message})
	}
	if l.MaxPageSize > 0 && p.PageSize > l.MaxPageSize {
		ferrs = append(ferrs, FieldError{Field: "page_size", Message: fmt.Sprintf("must be <= %d", l.MaxPageSize)})
	}
	return p, newInvalidInput(ferrs)
}

// normalizeTags trims, lowercases and dedupes tags, keeping them sorted so equal
// filters produce equal queries.
func normalizeTags(tags []string) ([]string, []FieldError) {
	if len(tags) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	var ferrs []FieldError
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if len([]rune(tag)) > maxTagLen {
			ferrs = append(ferrs, FieldError{Field: "tags", Message: fmt.Sprintf("tag %q is longer than %d", tag, maxTagLen)})
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > maxTags {
		ferrs = append(ferrs, FieldError{Field: "tags", Message: fmt.Sprintf("at most %d tags", maxTags)})
	}
	sort.Strings(out)
	return out, ferrs
}

func checkText(field, value string, max int) []FieldError {
	if value == "" {
		return []FieldError{{Field: field, Message: "must not be empty"}}
	}
	if len([]rune(value)) > max {
		return []FieldError{{Field: field, Message: fmt.Sprintf("length must be <= %d", max)}}
	}
	return nil
}
