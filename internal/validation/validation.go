// Package validation checks request bodies against the JSON schemas shipped in
// schemas/ before they are decoded into handler DTOs.
package validation

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/go-extras/go-kit/must"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"ticketflow/internal/service"
)

type Schema string

const (
	Ticket      Schema = "ticket.json"
	TicketPatch Schema = "ticket_patch.json"
	Status      Schema = "status.json"
	Assignee    Schema = "assignee.json"
	Comment     Schema = "comment.json"
	Role        Schema = "role.json"
	SignIn      Schema = "signin.json"
	SignUp      Schema = "signup.json"
)

const maxBody = 1 << 20

//go:embed schemas/*.json
var schemaFiles embed.FS

var compiled = must.Must(compile(must.Must(fs.Sub(schemaFiles, "schemas"))))

func compile(fsys fs.FS) (map[Schema]*jsonschema.Schema, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	for _, e := range entries {
		b, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(e.Name(), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", e.Name(), err)
		}
	}
	out := make(map[Schema]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		s, err := c.Compile(e.Name())
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", e.Name(), err)
		}
		out[Schema(e.Name())] = s
	}
	return out, nil
}

// Decode reads a JSON body, validates it against s and unmarshals it into dst.
// Every failure is a *service.ValidationError.
func Decode(r io.Reader, s Schema, dst any) error {
	schema, ok := compiled[s]
	if !ok {
		return fmt.Errorf("unknown schema %q", s)
	}
	raw, err := io.ReadAll(io.LimitReader(r, maxBody+1))
	if err != nil {
		return &service.ValidationError{Message: "Could not read request body"}
	}
	if len(raw) > maxBody {
		return &service.ValidationError{Message: "Request body is too large"}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &service.ValidationError{Message: "Request body is not valid JSON"}
	}
	if err := schema.Validate(doc); err != nil {
		return &service.ValidationError{Message: describe(err)}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &service.ValidationError{Message: "Request body does not match the expected shape"}
	}
	return nil
}

// describe reports the first leaf failure, which names the offending field.
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return "Invalid request body"
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	if field == "" {
		return "Invalid request body: " + ve.Message
	}
	return fmt.Sprintf("Invalid %s: %s", field, ve.Message)
}
