package server

import (
	"log/slog"

	"bookblog/internal/middleware"
	"bookblog/internal/models"
	"bookblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

const dashboardPath = "/admin"

// LoginPage renders the admin login form.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{"Title": "Admin login"})
}

// Login authenticates an admin and starts a session. Bad credentials
// re-render the form.
func (s *Server) Login(c *fiber.Ctx) error {
	svc, err := s.services(c)
	if err != nil {
		return err
	}

	email := c.FormValue("email")
	user, err := svc.auth.Authenticate(c.UserContext(), email, c.FormValue("password"))
	if err != nil {
		if models.HasCode(err, models.CodeUnauthorized) {
			middleware.LoginAttempts.WithLabelValues("failure").Inc()
			middleware.Logger.WarnContext(c.UserContext(), "admin login failed", slog.String("email", email))
			return c.Render("login", fiber.Map{
				"Title": "Admin login",
				"Error": service.ErrInvalidCredentials.Message,
			})
		}
		return err
	}

	if err := s.sessions.Login(c, user.ID); err != nil {
		return models.NewInternalError(err)
	}
	middleware.LoginAttempts.WithLabelValues("success").Inc()
	middleware.Logger.InfoContext(c.UserContext(), "admin logged in", slog.Uint64("user_id", uint64(user.ID)))

	return c.Redirect(dashboardPath, fiber.StatusFound)
}

// Logout ends the admin session.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Logout(c); err != nil {
		return models.NewInternalError(err)
	}
	return c.Redirect(middleware.LoginPath, fiber.StatusFound)
}

// Dashboard lists every post and the reviews awaiting moderation.
func (s *Server) Dashboard(c *fiber.Ctx) error {
	svc, err := s.services(c)
	if err != nil {
		return err
	}
	posts, err := svc.posts.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	pending, err := svc.reviews.Pending(c.UserContext())
	if err != nil {
		return err
	}
	return c.Render("admin", fiber.Map{
		"Title":   "Dashboard",
		"Posts":   posts,
		"Pending": pending,
	})
}

// CreatePost publishes a post from the dashboard form.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	svc, err := s.services(c)
	if err != nil {
		return err
	}
	post, err := svc.posts.CreatePost(c.UserContext(), service.CreatePostInput{
		Title:  c.FormValue("title"),
		Author: c.FormValue("author"),
		Body:   c.FormValue("body"),
	})
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(c.UserContext(), "post created", slog.Uint64("post_id", uint64(post.ID)))
	return c.Redirect(dashboardPath, fiber.StatusFound)
}

// ModerateReview approves or rejects a review.
func (s *Server) ModerateReview(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Review")
	if err != nil {
		return err
	}
	svc, err := s.services(c)
	if err != nil {
		return err
	}
	if _, err := svc.reviews.Moderate(c.UserContext(), id, c.Params("action")); err != nil {
		return err
	}
	return c.Redirect(dashboardPath, fiber.StatusFound)
}
