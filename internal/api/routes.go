package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasker-api/internal/api/middleware"
)

// RegisterRoutes mounts the user and task endpoints on r. Everything except
// registration, login and the public avatar read requires an active session.
func RegisterRoutes(r chi.Router, users *UserHandler, tasks *TaskHandler, authMiddleware *middleware.AuthMiddleware) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", users.Register)
		r.Post("/login", users.Login)
		r.Get("/{id}/avatar", users.GetAvatar)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/logout", users.Logout)
			r.Post("/logoutAll", users.LogoutAll)
			r.Get("/me", users.Me)
			r.Patch("/me", users.UpdateMe)
			r.Delete("/me", users.DeleteMe)
			r.Post("/me/avatar", users.UploadAvatar)
			r.Delete("/me/avatar", users.DeleteAvatar)
		})
	})

	// Gate inside a group: the route is matched first, so rejected requests
	// still carry their pattern (/tasks/{id}).
	r.Route("/tasks", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/", tasks.CreateTask)
			r.Get("/", tasks.ListTasks)
			r.Get("/{id}", tasks.GetTask)
			r.Patch("/{id}", tasks.UpdateTask)
			r.Delete("/{id}", tasks.DeleteTask)
		})
	})
}
