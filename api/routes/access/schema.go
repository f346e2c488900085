package access

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const requestAccessSchema = `{
	"type": "object",
	"properties": {
		"itemId": {"type": "string"},
		"itemType": {"type": "string"},
		"itemName": {"type": "string"},
		"accessTypes": {"type": "array", "items": {"type": "string"}}
	}
}`

const updateRequestSchema = `{
	"type": "object",
	"properties": {
		"status": {"type": "string"},
		"action": {"enum": ["revoke"]},
		"accessType": {"type": "string"}
	},
	"dependentRequired": {"action": ["accessType"]}
}`

var (
	requestAccessBody = mustCompile("request_access.json", requestAccessSchema)
	updateRequestBody = mustCompile("update_request.json", updateRequestSchema)
)

func mustCompile(name, schema string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schema))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(err)
	}
	return c.MustCompile(name)
}

const maxBodyBytes = 1 << 20

// decodeValid reads the body, checks it against schema and decodes it into
// v. The returned string is the client-facing reason on failure.
func decodeValid(r *http.Request, schema *jsonschema.Schema, v interface{}) (string, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "Invalid JSON", false
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return "Invalid JSON", false
	}
	if err := schema.Validate(inst); err != nil {
		return "Invalid request body", false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return "Invalid JSON", false
	}
	return "", true
}
