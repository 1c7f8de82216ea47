package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"a11yhub/internal/services"

	"github.com/labstack/echo/v4"
)

// reserved query parameters that are never treated as filters
var reserved = map[string]bool{"page": true, "limit": true, "include": true, "sort": true, "order": true}

const maxLimit = 100

// BaseController provides generic read operations for any model
type BaseController[T any] struct {
	service  services.BaseService[T]
	includes map[string]bool
}

// NewBaseController creates a new base controller. Only the named
// relationships may be preloaded through the include parameter.
func NewBaseController[T any](service services.BaseService[T], includes ...string) *BaseController[T] {
	c := &BaseController[T]{service: service, includes: make(map[string]bool, len(includes))}
	for _, inc := range includes {
		c.includes[inc] = true
	}
	return c
}

// parseIncludes parses the include query parameter and returns the allowed
// relationships to preload
func (c *BaseController[T]) parseIncludes(ctx echo.Context) ([]string, error) {
	include := ctx.QueryParam("include")
	if include == "" {
		return nil, nil
	}
	var out []string
	for _, inc := range strings.Split(include, ",") {
		inc = strings.TrimSpace(inc)
		if !c.includes[inc] {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "cannot include "+inc)
		}
		out = append(out, inc)
	}
	return out, nil
}

// Get handles retrieval of a single entity
func (c *BaseController[T]) Get(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing id parameter")
	}
	includes, err := c.parseIncludes(ctx)
	if err != nil {
		return err
	}
	entity, err := c.service.Get(ctx.Request().Context(), id, includes...)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, entity)
}

// List handles retrieval of multiple entities with pagination and filtering
func (c *BaseController[T]) List(ctx echo.Context) error {
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	filters := make(map[string]interface{})
	for key, values := range ctx.QueryParams() {
		if !reserved[key] && len(values) > 0 {
			filters[key] = values[0]
		}
	}

	includes, err := c.parseIncludes(ctx)
	if err != nil {
		return err
	}

	entities, total, err := c.service.List(ctx.Request().Context(), services.ListQuery{
		Page:     page,
		Limit:    limit,
		Filters:  filters,
		Sort:     ctx.QueryParam("sort"),
		Order:    ctx.QueryParam("order"),
		Includes: includes,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"data":  entities,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// RegisterRoutes registers the read routes for the controller
func (c *BaseController[T]) RegisterRoutes(g *echo.Group, path string, middleware ...echo.MiddlewareFunc) {
	g.GET(path, c.List, middleware...)
	g.GET(path+"/:id", c.Get, middleware...)
}
