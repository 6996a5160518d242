package services

import (
	"fmt"

	"github.com/localnerve/obrasdb/internal/models"
	"gorm.io/gorm"
)

// authorize checks that actor may act on records owned by architectID.
// Admins act on any tenant. Architects act on their own tenant. Workers act on the tenant that owns them.
func authorize(db *gorm.DB, actor Actor, architectID uint64) error {
	switch actor.Kind {
	case models.ActorAdmin:
		return nil
	case models.ActorArchitect:
		if actor.ID != architectID {
			return fmt.Errorf("%w: architect %d does not own architect %d records", ErrOwnershipMismatch, actor.ID, architectID)
		}
		return nil
	case models.ActorWorker:
		var worker models.ConstructionWorker
		if err := db.Select("id", "architect_id").First(&worker, actor.ID).Error; err != nil {
			return translate(err, models.TableConstructionWorker, actor.ID)
		}
		if worker.ArchitectID != architectID {
			return fmt.Errorf("%w: worker %d does not belong to architect %d", ErrOwnershipMismatch, actor.ID, architectID)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown actor type %q", ErrInvalidInput, actor.Kind)
}

// tenantOf resolves the architect an actor belongs to. Admins have no tenant.
func tenantOf(db *gorm.DB, actor Actor) (uint64, error) {
	switch actor.Kind {
	case models.ActorAdmin:
		return 0, nil
	case models.ActorArchitect:
		return actor.ID, nil
	case models.ActorWorker:
		var worker models.ConstructionWorker
		if err := db.Select("id", "architect_id").First(&worker, actor.ID).Error; err != nil {
			return 0, translate(err, models.TableConstructionWorker, actor.ID)
		}
		return worker.ArchitectID, nil
	}
	return 0, fmt.Errorf("%w: unknown actor type %q", ErrInvalidInput, actor.Kind)
}
