package dap

import "github.com/aetherall/neodap/pkg/schema"

// launchConfigSchema is the shape a raw launch/attach configuration
// must satisfy before ValidateConfig will hand it to Launch (spec.md §4.6
// Config: "a launch configuration with a request type other than
// launch/attach, or missing its program for a launch request, is a
// SchemaViolation raised before any session is started").
var launchConfigSchema = &schema.ObjectSchema{
	Properties: map[string]schema.Schema{
		"name":    schema.String(),
		"request": schema.String(),
		"program": schema.String(),
	},
	Required: []string{"name", "request"},
}

// ValidateConfig checks raw (as decoded from e.g. a launch.json entry)
// against the Config schema, returning an *Error of KindSchemaViolation
// carrying the underlying validation failure if it does not conform. A launch
// request additionally requires "program".
func ValidateConfig(raw map[string]any) error {
	if _, err := launchConfigSchema.Validate(raw); err != nil {
		return &Error{Kind: KindSchemaViolation, Command: "launch", Message: err.Error()}
	}

	request, _ := raw["request"].(string)
	if request != "launch" && request != "attach" {
		return &Error{Kind: KindSchemaViolation, Command: "launch", Message: "request must be \"launch\" or \"attach\""}
	}
	if request == "launch" {
		if program, _ := raw["program"].(string); program == "" {
			return &Error{Kind: KindSchemaViolation, Command: "launch", Message: "launch configuration requires a program"}
		}
	}
	return nil
}
