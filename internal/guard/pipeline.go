package guard

// Pipeline builds the standard chains used by the route table. Verification
// enforcement is a policy knob rather than a per-route decision so the whole
// API can be switched at once.
type Pipeline struct {
	users           UserSource
	requireVerified bool
}

// NewPipeline constructs a Pipeline. When requireVerified is false the
// Verified guard is omitted from every chain.
func NewPipeline(users UserSource, requireVerified bool) *Pipeline {
	return &Pipeline{users: users, requireVerified: requireVerified}
}

// SignedIn guards routes that only need an authenticated principal.
func (p *Pipeline) SignedIn() Chain {
	return Chain{Authenticated(p.users)}
}

// Active guards routes that need an authenticated and verified principal.
func (p *Pipeline) Active() Chain {
	ch := Chain{Authenticated(p.users)}
	if p.requireVerified {
		ch = append(ch, Verified())
	}
	return ch
}

// Mutating guards author-only operations on an existing resource: edit,
// delete, publish, unpublish.
func (p *Pipeline) Mutating(kind string, resolve Resolver) Chain {
	return append(p.Active(), ResourceResolved(kind, resolve), IsOwner())
}

// Interacting guards rate and comment operations. Ownership is intentionally
// not checked: any verified principal may interact with published work.
func (p *Pipeline) Interacting(kind string, resolve Resolver) Chain {
	return append(p.Active(), ResourceResolved(kind, resolve), IsPublished())
}
