// common.go
//
// Construction-site inventory service: element custody, missing-item triage and event history
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of obrasdb.
// obrasdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// obrasdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with obrasdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/config"
	"github.com/localnerve/obrasdb/internal/middleware"
	"github.com/localnerve/obrasdb/internal/services"
	"github.com/localnerve/obrasdb/internal/types"
	"go.uber.org/zap"
)

// Handler serves the inventory API
type Handler struct {
	Inventory *services.Inventory
	Config    *config.Config
	Log       *zap.Logger

	validate *validator.Validate
}

// New creates a Handler
func New(inventory *services.Inventory, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{
		Inventory: inventory,
		Config:    cfg,
		Log:       log.Named("handlers"),
		validate:  newValidator(),
	}
}

// newValidator reports field names by their json tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind parses the JSON body into dto and validates it.
func (h *Handler) bind(c *fiber.Ctx, dto interface{}) error {
	if err := c.BodyParser(dto); err != nil {
		return &types.CustomError{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
			Type:    "body",
			Err:     err,
		}
	}
	return h.validate.Struct(dto)
}

// actor returns the caller identity stored by middleware.Actor.
func actor(c *fiber.Ctx) (services.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return services.Actor{}, &types.CustomError{
			Code:    fiber.StatusUnauthorized,
			Message: "actor identity missing",
			Type:    "actor.missing",
		}
	}
	return a, nil
}

// paramID parses a positive integer path parameter.
func paramID(c *fiber.Ctx, name string) (uint64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, types.BadRequest("param", "invalid %s %q", name, raw)
	}
	return id, nil
}

// queryUint parses an optional integer query parameter.
func queryUint(c *fiber.Ctx, name string) (*uint64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, types.BadRequest("query", "invalid query parameter %s %q", name, raw)
	}
	return &v, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *fiber.Ctx, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, types.BadRequest("query", "invalid query parameter %s %q", name, raw)
	}
	return &v, nil
}

// deref returns the value of an optional id, or zero.
func deref(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}
