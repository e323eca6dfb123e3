// Package guard implements the authorization chain that protected routes run
// before their handlers. Each guard is a named predicate over the request
// principal and the resolved resource; a chain evaluates guards left to right
// and stops at the first rejection.
package guard

import (
	"context"
	"fmt"
	"strconv"

	"zilean/internal/models"
)

// Rejection messages. These are part of the public API contract and must not
// be reworded.
const (
	MsgNotLoggedIn  = "not logged in"
	MsgNotVerified  = "must be verified to perform requested action"
	MsgNotOwner     = "must be the author to modify the selected resource"
	MsgNotPublished = "resource must be published to perform requested action"
)

// MsgNotFound returns the rejection message for an unresolvable resource of
// the given kind.
func MsgNotFound(kind string) string {
	return fmt.Sprintf("no %s found with given id", kind)
}

// Result is the outcome of a single guard: either proceed to the next guard
// or terminate the request with a status and message.
type Result struct {
	status  int
	message string
}

// Proceed lets the chain continue.
func Proceed() Result { return Result{} }

// Reject terminates the chain with the given status code and error message.
func Reject(status int, message string) Result {
	return Result{status: status, message: message}
}

// Rejected reports whether this result terminates the chain.
func (r Result) Rejected() bool { return r.status != 0 }

// Status returns the HTTP status code of a rejection, 0 otherwise.
func (r Result) Status() int { return r.status }

// Message returns the error message of a rejection.
func (r Result) Message() string { return r.message }

// Request is the shared context a chain evaluates against. Guards attach what
// they resolve (the principal, the resource) for later guards and the handler.
type Request struct {
	// UserID is the authenticated principal ID, zero when anonymous.
	UserID uint
	// RawID is the unparsed resource identifier from the request path.
	RawID string

	User     *models.User
	Resource models.Resource
}

// UserSource loads principals for the authenticated guard.
type UserSource interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
}

// Resolver loads a resource of one kind by ID. A nil resource with a nil
// error is treated as not found.
type Resolver func(ctx context.Context, id uint) (models.Resource, error)

// Guard is a named chain link. The name feeds rejection metrics and tests.
type Guard struct {
	Name  string
	Check func(ctx context.Context, req *Request) Result
}

// Chain is an ordered guard sequence.
type Chain []Guard

// Run evaluates the chain left to right, short-circuiting on the first
// rejection. It returns the terminal result and the name of the guard that
// produced it (empty when every guard proceeded).
func (ch Chain) Run(ctx context.Context, req *Request) (Result, string) {
	for _, g := range ch {
		if res := g.Check(ctx, req); res.Rejected() {
			return res, g.Name
		}
	}
	return Proceed(), ""
}

// Authenticated rejects anonymous requests and attaches the principal record
// for later guards.
func Authenticated(users UserSource) Guard {
	return Guard{
		Name: "authenticated",
		Check: func(ctx context.Context, req *Request) Result {
			if req.UserID == 0 {
				return Reject(401, MsgNotLoggedIn)
			}
			user, err := users.UserByID(ctx, req.UserID)
			if err != nil || user == nil {
				return Reject(401, MsgNotLoggedIn)
			}
			req.User = user
			return Proceed()
		},
	}
}

// Verified rejects principals that have not confirmed their account. It must
// run after Authenticated.
func Verified() Guard {
	return Guard{
		Name: "verified",
		Check: func(ctx context.Context, req *Request) Result {
			if req.User == nil || !req.User.Verified {
				return Reject(401, MsgNotVerified)
			}
			return Proceed()
		},
	}
}

// ResourceResolved parses the path ID and loads the resource of the given
// kind, attaching it to the request. Malformed and unknown IDs are
// indistinguishable to the caller.
func ResourceResolved(kind string, resolve Resolver) Guard {
	return Guard{
		Name: "resourceResolved",
		Check: func(ctx context.Context, req *Request) Result {
			id, err := strconv.ParseUint(req.RawID, 10, 32)
			if err != nil || id == 0 {
				return Reject(400, MsgNotFound(kind))
			}
			resource, err := resolve(ctx, uint(id))
			if err != nil || resource == nil {
				return Reject(400, MsgNotFound(kind))
			}
			req.Resource = resource
			return Proceed()
		},
	}
}

// IsOwner rejects principals that do not own the resolved resource. It must
// run after Authenticated and ResourceResolved.
func IsOwner() Guard {
	return Guard{
		Name: "isOwner",
		Check: func(ctx context.Context, req *Request) Result {
			if req.User == nil || req.Resource == nil || req.Resource.OwnerID() != req.User.ID {
				return Reject(401, MsgNotOwner)
			}
			return Proceed()
		},
	}
}

// IsPublished rejects actions on resources still in draft. It must run after
// ResourceResolved.
func IsPublished() Guard {
	return Guard{
		Name: "isPublished",
		Check: func(ctx context.Context, req *Request) Result {
			if req.Resource == nil || req.Resource.PublicationTime() == nil {
				return Reject(400, MsgNotPublished)
			}
			return Proceed()
		},
	}
}
