package cmd

// Middleware wraps a command (e.g. logging, permission check, rate limit).
// The wrapped type remains Command; Describe still reaches the Descriptor.
type Middleware func(Command) Command

// Apply applies middlewares in order; the last in the list is the outermost,
// so it runs first.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		if mw != nil {
			c = mw(c)
		}
	}
	return c
}
