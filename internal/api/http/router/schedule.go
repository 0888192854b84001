package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_scheduler/internal/api/http/handler"
)

func (r *Router) registerScheduleRoutes(
	api fiber.Router,
	sh *handler.ScheduleHandler,
	authRequired fiber.Handler,
) {
	schedule := api.Group("/schedule", authRequired)

	schedule.Get("/patterns", sh.ListPatterns)
	schedule.Post("/patterns", sh.CreatePattern)
	schedule.Delete("/patterns/:id", sh.DeletePattern)

	schedule.Put("/patterns/:id/occurrences/:date", sh.ModifyOccurrence)
	schedule.Delete("/patterns/:id/occurrences/:date", sh.CancelOccurrence)
	schedule.Post("/patterns/:id/occurrences/:date/restore", sh.RestoreOccurrence)

	schedule.Get("/weeks", sh.ListWeeks)
	schedule.Post("/weeks/next", sh.NextWeek)
	schedule.Get("/weeks/:start", sh.GetWeek)

	schedule.Get("/feed.ics", sh.Feed)
}
