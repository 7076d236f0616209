// Package requestid correlates the log records of one HTTP request or one
// CLI run.
//
// Middleware reuses a well-formed X-Request-ID header or assigns a new
// UUIDv7, echoes it on the response and stores it in the request context.
// LoggerExtractor turns the stored id into a request_id log attribute:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	ctx := requestid.WithContext(ctx, requestid.New())
//	log.InfoContext(ctx, "validation finished") // carries request_id
package requestid
