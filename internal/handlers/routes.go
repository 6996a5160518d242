package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/middleware"
)

// Register mounts the API under /api and the health probe at /health.
func Register(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)

	api := app.Group("/api", middleware.VersionMiddleware(), middleware.Actor())

	api.Post("/architects", middleware.RequireAdmin(), h.CreateArchitect)
	api.Post("/categories", h.CreateCategory)
	api.Get("/categories", h.ListCategories)
	api.Post("/deposits", h.CreateDeposit)
	api.Get("/deposits", h.ListDeposits)
	api.Delete("/deposits/:id", h.DeleteDeposit)
	api.Post("/constructions", h.CreateConstruction)
	api.Get("/constructions", h.ListConstructions)
	api.Delete("/constructions/:id", h.CloseConstruction)
	api.Post("/constructions/:id/restore", h.RestoreConstruction)
	api.Post("/workers", h.CreateWorker)
	api.Get("/workers", h.ListWorkers)
	api.Patch("/workers/:id/construction", h.AssignWorkerToConstruction)
	api.Post("/logins", h.RecordLogin)

	api.Post("/elements", h.CreateElement)
	api.Get("/elements", h.ListElements)
	api.Put("/elements/:id", h.UpdateElement)
	api.Delete("/elements/:id", h.DeleteElement)
	api.Post("/elements/:id/move", h.MoveElement)
	api.Get("/elements/:id/location", h.GetElementLocation)
	api.Get("/elements/:id/assignments", h.GetElementAssignments)
	api.Get("/locations/:kind/:id/elements", h.GetLocationElements)

	api.Post("/workers/:workerId/inventory", h.AssignToWorker)
	api.Patch("/workers/:workerId/inventory/:elementId/return", h.ReturnFromWorker)
	api.Get("/workers/:workerId/inventory", h.GetWorkerInventory)
	api.Get("/workers/:workerId/elements", h.GetWorkerElements)

	api.Post("/missings", h.ReportMissing)
	api.Get("/missings", h.ListMissings)
	api.Get("/missings/:id", h.GetMissing)
	api.Patch("/missings/:id", h.UpdateMissing)
	api.Patch("/missings/:id/status", h.ChangeMissingStatus)

	api.Post("/notes", h.AddNote)
	api.Put("/notes/:id", h.UpdateNote)
	api.Delete("/notes/:id", h.DeleteNote)
	api.Get("/notes", h.ListNotes)

	api.Get("/events-history", h.ListEvents)
}
