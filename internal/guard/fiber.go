package guard

import (
	"github.com/gofiber/fiber/v2"

	"zilean/internal/middleware"
)

// requestLocal is the fiber.Ctx locals key for the evaluated guard Request.
const requestLocal = "guardRequest"

// Middleware adapts a chain to a fiber handler. On rejection it writes the
// guard's status and `{"error": message}` body and stops the request; on
// success it stores the populated Request for the terminal handler.
func Middleware(chain Chain) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := &Request{RawID: c.Params("id")}
		if uid, ok := c.Locals("userID").(uint); ok {
			req.UserID = uid
		}

		res, name := chain.Run(c.UserContext(), req)
		if res.Rejected() {
			middleware.GuardRejections.WithLabelValues(name).Inc()
			return c.Status(res.Status()).JSON(fiber.Map{"error": res.Message()})
		}

		c.Locals(requestLocal, req)
		return c.Next()
	}
}

// FromCtx returns the Request a preceding Middleware attached, or an empty
// Request when the route carries no chain.
func FromCtx(c *fiber.Ctx) *Request {
	if req, ok := c.Locals(requestLocal).(*Request); ok {
		return req
	}
	return &Request{RawID: c.Params("id")}
}
