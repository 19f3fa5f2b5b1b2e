package forward

import (
	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
)

// Error codes for requests rejected before they reach a queue use case.
const (
	codeInvalidContentType = "INVALID_CONTENT_TYPE"
	codeInvalidJSONBody    = "INVALID_JSON_BODY"
	codeInvalidQueryParams = "INVALID_QUERY_PARAMS"
	codeInvalidHTTPMethod  = "INVALID_HTTP_METHOD"
)

// decodeBody decodes the request body into the given request struct.
// It only decodes if the content type is application/json.
func decodeBody[I any](c *fiber.Ctx, req I) error {
	if len(c.Body()) == 0 {
		return nil // No body to decode
	}

	if !c.Is("json") {
		return errx.New(
			"content type must be application/json for this request",
			errx.WithType(errx.T_Validation),
			errx.WithCode(codeInvalidContentType),
		)
	}

	if err := c.BodyParser(req); err != nil {
		return errx.Wrap(
			err,
			errx.WithType(errx.T_Validation),
			errx.WithCode(codeInvalidJSONBody),
		)
	}

	return nil
}

// decodeQuery decodes the query params into the given request struct.
func decodeQuery[I any](c *fiber.Ctx, req I) error {
	if len(c.Queries()) == 0 {
		return nil // No query params to decode
	}

	if err := c.QueryParser(req); err != nil {
		return errx.Wrap(
			err,
			errx.WithType(errx.T_Validation),
			errx.WithCode(codeInvalidQueryParams),
		)
	}

	return nil
}
