// actor.go
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

package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/models"
	"github.com/localnerve/obrasdb/internal/services"
	"github.com/localnerve/obrasdb/internal/types"
)

const (
	// HeaderActorID carries the id of the caller, set by the auth collaborator in front of the service.
	HeaderActorID = "X-Actor-Id"
	// HeaderActorType carries the caller kind: architect, worker or admin.
	HeaderActorType = "X-Actor-Type"

	actorKey = "actor"
)

// Actor reads the caller identity headers and stores a services.Actor in the request locals.
func Actor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind := models.ActorKind(strings.ToLower(strings.TrimSpace(c.Get(HeaderActorType))))
		rawID := strings.TrimSpace(c.Get(HeaderActorID))

		if kind == "" || rawID == "" {
			return &types.CustomError{
				Code:    fiber.StatusUnauthorized,
				Message: fmt.Sprintf("%s and %s headers are required", HeaderActorID, HeaderActorType),
				Type:    "actor.missing",
			}
		}
		if !kind.Valid() {
			return &types.CustomError{
				Code:    fiber.StatusBadRequest,
				Message: fmt.Sprintf("unknown actor type %q", kind),
				Type:    "actor.type",
			}
		}
		id, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil || (id == 0 && kind != models.ActorAdmin) {
			return &types.CustomError{
				Code:    fiber.StatusBadRequest,
				Message: fmt.Sprintf("invalid actor id %q", rawID),
				Type:    "actor.id",
			}
		}

		c.Locals(actorKey, services.Actor{ID: id, Kind: kind})
		return c.Next()
	}
}

// RequireAdmin rejects callers that are not admins. It runs after Actor.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok || actor.Kind != models.ActorAdmin {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: "admin actor required",
				Type:    "actor.admin",
			}
		}
		return c.Next()
	}
}

// ActorFrom returns the actor stored by Actor.
func ActorFrom(c *fiber.Ctx) (services.Actor, bool) {
	actor, ok := c.Locals(actorKey).(services.Actor)
	return actor, ok
}
