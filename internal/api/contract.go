package api

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// Contract checks successful responses against the embedded OpenAPI
// document before they are decoded.
type Contract struct {
	doc *openapi3.T
}

// LoadContract parses and validates the embedded OpenAPI document.
func LoadContract(ctx context.Context) (*Contract, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	return &Contract{doc: doc}, nil
}

// Operations lists "METHOD /path" for every operation in the document.
func (c *Contract) Operations() []string {
	var ops []string
	for _, path := range c.doc.Paths.InMatchingOrder() {
		item := c.doc.Paths.Find(path)
		for method := range item.Operations() {
			ops = append(ops, method+" "+path)
		}
	}
	return ops
}

// ValidateResponse checks status, content type and body for the operation
// at path. Paths or methods the document does not describe pass.
func (c *Contract) ValidateResponse(ctx context.Context, req *http.Request, path string, status int, header http.Header, body []byte) error {
	item := c.doc.Paths.Find(path)
	if item == nil {
		return nil
	}
	op := item.GetOperation(req.Method)
	if op == nil {
		return nil
	}

	route := &routers.Route{
		Spec:      c.doc,
		Path:      path,
		PathItem:  item,
		Method:    req.Method,
		Operation: op,
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request: req,
			Route:   route,
		},
		Status: status,
		Header: header,
	}
	input.SetBodyBytes(body)

	if err := openapi3filter.ValidateResponse(ctx, input); err != nil {
		return fmt.Errorf("response violates %s %s contract: %w", req.Method, path, err)
	}
	return nil
}
