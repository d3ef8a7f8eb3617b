// Package args decodes console command arguments. A command declares an
// ordered Schema of ArgSpecs once; every invocation's whitespace-split tokens
// are then bound to it, positionally or as name:value pairs, and coerced to
// typed values.
//
//	schema := args.MustSchema(
//	    args.ArgSpec{Name: "delay", Type: args.Float()},
//	    args.ArgSpec{Name: "message", Type: args.Text(), Rest: true},
//	)
//	vals, err := args.Bind(schema, []string{"10", "The", "server", "will", "restart"}, nil)
//	// vals.Float("delay") == 10, vals.String("message") == "The server will restart"
//
// Everything in this package is pure and synchronous. Schemas are immutable
// after NewSchema, so one schema may be bound from many goroutines at once.
package args
