package server

import (
	"bookblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// reviewSubmittedMessage is shown on the post page after a review is accepted.
const reviewSubmittedMessage = "Review submitted! Pending approval."

// ListPosts renders the most recent posts.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	svc, err := s.services(c)
	if err != nil {
		return err
	}
	posts, err := svc.posts.ListRecent(c.UserContext())
	if err != nil {
		return err
	}
	return c.Render("index", fiber.Map{"Posts": posts})
}

// GetPost renders a post with its approved reviews.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return err
	}
	svc, err := s.services(c)
	if err != nil {
		return err
	}
	return s.renderPost(c, svc, id, "")
}

// SubmitReview stores a pending review and re-renders the post page.
func (s *Server) SubmitReview(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return err
	}
	svc, err := s.services(c)
	if err != nil {
		return err
	}

	if _, err := svc.reviews.Submit(c.UserContext(), service.SubmitReviewInput{
		PostID: id,
		Name:   c.FormValue("name"),
		Rating: c.FormValue("rating"),
		Text:   c.FormValue("text"),
	}); err != nil {
		return err
	}

	return s.renderPost(c, svc, id, reviewSubmittedMessage)
}

func (s *Server) renderPost(c *fiber.Ctx, svc *services, id uint, info string) error {
	detail, err := svc.posts.GetDetail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Render("post", fiber.Map{
		"Title":   detail.Post.Title,
		"Post":    detail.Post,
		"Reviews": detail.Reviews,
		"Info":    info,
	})
}
