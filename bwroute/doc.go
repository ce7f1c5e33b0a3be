// Package bwroute dispatches API Gateway proxy events to handlers.
//
// A [Router] holds an ordered route table. Each invocation is matched against
// the table in registration order and the first route whose method and path
// pattern match wins:
//
//	r := bwroute.New()
//	r.GET("/benefits/me", h.myBenefits)
//	r.GET("/benefits/{benefitId}/users", h.benefitUsers,
//	    bwroute.WithPathSchema(bwvalid.Struct[BenefitPath]()))
//	r.GET("/files/{path+}", h.getFile)
//
//	lambda.Start(r.Route)
//
// # Path patterns
//
// A segment written as {name} binds exactly one request segment. A final
// segment written as {name+} binds every remaining segment joined with "/".
// Literal segments must match exactly and case-sensitively. Leading and
// trailing slashes, query strings and fragments are ignored.
//
// There is no "most specific route wins" rule. A greedy route registered
// before a literal route that it also matches shadows the literal route, so
// register specific routes first.
//
// # Validation
//
// Routes may declare a path schema and a body schema (see package bwvalid).
// Both run before the handler and their issues are collected together; any
// issue produces a 400 response and the handler is not called:
//
//	{"error":"Invalid request","details":[{"in":"body","path":"price","code":"required","message":"is required"}]}
//
// A missing body or a body that is not JSON gets a plain 400 message instead.
// [WithParsers], [WithPathParser] and [WithBodyParser] offer the same checks
// as handler wrappers with typed results.
//
// # Errors
//
// [Router.Route] never fails. Handler errors are mapped by [Kind]:
//
//	| kind            | status | body                              |
//	|-----------------|--------|-----------------------------------|
//	| [BadRequest]    | 400    | the error message                 |
//	| [Invalid]       | 400    | JSON with the issue list          |
//	| [Forbidden]     | 403    | Forbidden                         |
//	| [NotFound]      | 404    | Not Found                         |
//	| anything else   | 500    | Internal server error             |
//
// Fixed bodies are plain text; only the issue list is JSON. Every error is
// logged with its stack before the response is produced, and nothing beyond
// a bad-request message or the issue list reaches the caller.
package bwroute
