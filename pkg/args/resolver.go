package args

// Entity is a domain object that Ref types resolve to.
type Entity interface {
	EntityID() string
	EntityName() string
}

// Resolver looks up domain references. Implementations must be safe for
// concurrent use when Bind is called concurrently.
type Resolver interface {
	// ResolveEntity finds an entity by identifier, name or partial match.
	ResolveEntity(kind, ident string) (Entity, bool)
	// AllEntities returns every known entity of kind in a stable order.
	AllEntities(kind string) []Entity
}

// allToken expands to every known entity inside a list of references.
const allToken = "*"
