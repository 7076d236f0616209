// Package api exposes a compiled schema over HTTP with a chi router.
//
// Documents posted to /v1/messages/{name}/validate are decoded as JSON, or
// as YAML when the Content-Type says so, and validated against the named
// message. A valid document yields 200. Violations yield 422 with the
// violations in data and a field to messages map in error.details:
//
//	{
//	  "data": {"message": "demo.v1.Team", "valid": false,
//	           "violations": [{"field": "name", "rule": "string.min_len", "message": "..."}]},
//	  "error": {"code": "validation_failed", "message": "document violates 1 rule(s)",
//	            "details": {"name": ["..."]}}
//	}
//
// Messages are rendered in the language negotiated from the lang query
// parameter or Accept-Language. The fail_fast query parameter stops at the
// first violation. Every request carries an X-Request-ID and is logged with
// it.
package api
