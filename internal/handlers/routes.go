package handlers

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the relay endpoints on router.
func RegisterRoutes(router fiber.Router, geometry *GeometryHandler, commands *CommandHandler) {
	router.Post("/geometry", geometry.IngestSnapshot)
	router.Get("/geometry/latest", geometry.GetLatest)
	router.Get("/geometry/projects", geometry.ListProjects)
	router.Post("/geometry/export", geometry.ExportSnapshot)

	router.Post("/commands", commands.EnqueueCommand)
	router.Get("/commands/next", commands.DequeueNext)
	router.Get("/commands/pending", commands.PendingCount)
	router.Get("/commands/history", commands.ListHistory)
}
