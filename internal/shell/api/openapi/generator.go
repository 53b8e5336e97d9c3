// Package openapi provides reflective OpenAPI 3.0 specification generation
// for the configuration API.
package openapi

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// Generator
// =============================================================================

// Generator produces the OpenAPI 3.0 specification for the configuration
// endpoints. Response schemas are extracted by reflecting on the API's
// response types; the result is cached after the first generation.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string
	models      map[string]any
	mu          sync.Mutex
	cachedSpec  *openapi3.T
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) {
		g.version = version
	}
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(g *Generator) {
		g.servers = append(g.servers, url)
	}
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:       "Config Control Service API",
		version:     "1.0.0",
		description: "Versioned configuration storage with template rendering",
		servers:     []string{"http://localhost:8080"},
		models:      make(map[string]any),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// RegisterModel adds a named response model whose schema is extracted by
// reflection and referenced from the operation responses.
func (g *Generator) RegisterModel(name string, model any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.models[name] = model
	g.cachedSpec = nil
}

// Generate produces the complete OpenAPI 3.0 specification.
func (g *Generator) Generate() *openapi3.T {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cachedSpec != nil {
		return g.cachedSpec
	}

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Servers: make(openapi3.Servers, 0, len(g.servers)),
		Paths:   &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	for _, url := range g.servers {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: url})
	}

	g.addCommonSchemas(spec)
	for name, model := range g.models {
		spec.Components.Schemas[name] = g.extractSchema(model)
	}
	g.addConfigPaths(spec)
	g.addHealthPaths(spec)

	g.cachedSpec = spec
	return spec
}

// =============================================================================
// Schemas
// =============================================================================

func (g *Generator) addCommonSchemas(spec *openapi3.T) {
	spec.Components.Schemas["Document"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:        &openapi3.Types{"object"},
			Description: "Configuration document; top-level fields are open except for the validated ones",
		},
	}

	spec.Components.Schemas["Error"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"code": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
			},
			Required: []string{"error"},
		},
	}
}

// extractSchema extracts an OpenAPI schema from a Go struct.
func (g *Generator) extractSchema(model any) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: make(openapi3.Schemas),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		if jsonTag != "" {
			if parts := strings.Split(jsonTag, ","); parts[0] != "" {
				name = parts[0]
			}
		}

		if propSchema := g.goTypeToSchema(field.Type); propSchema != nil {
			schema.Properties[name] = propSchema
		}
	}

	return &openapi3.SchemaRef{Value: schema}
}

// goTypeToSchema converts a Go type to an OpenAPI schema.
func (g *Generator) goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}}

	case reflect.Int64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}

	case reflect.Float32, reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}}}

	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: g.goTypeToSchema(t.Elem()),
			},
		}

	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: g.goTypeToSchema(t.Elem())},
			},
		}

	case reflect.Ptr:
		schema := g.goTypeToSchema(t.Elem())
		if schema != nil && schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		if t == reflect.TypeOf(time.Time{}) {
			return &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"},
			}
		}
		return g.extractSchema(reflect.New(t).Interface())

	default:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}
}

// =============================================================================
// Paths
// =============================================================================

func (g *Generator) addConfigPaths(spec *openapi3.T) {
	serviceParam := &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:     "service",
			In:       "path",
			Required: true,
			Schema: &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
			},
		},
	}

	spec.Paths.Set("/config/{service}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{serviceParam},
		Post: &openapi3.Operation{
			OperationID: "createConfiguration",
			Summary:     "Create a new configuration version",
			Tags:        []string{"Configurations"},
			RequestBody: &openapi3.RequestBodyRef{
				Value: &openapi3.RequestBody{
					Required: true,
					Content: openapi3.Content{
						"application/x-yaml": &openapi3.MediaType{
							Schema: &openapi3.SchemaRef{
								Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
							},
						},
					},
				},
			},
			Responses: g.responses(map[string]string{
				"201": "Configuration saved",
				"400": "Empty request body",
				"422": "Validation failed",
				"409": "Version already exists",
				"500": "Persistence failure",
			}),
		},
		Get: &openapi3.Operation{
			OperationID: "getConfiguration",
			Summary:     "Get a configuration, optionally rendered as a template",
			Tags:        []string{"Configurations"},
			Parameters: openapi3.Parameters{
				&openapi3.ParameterRef{
					Value: &openapi3.Parameter{
						Name:        "version",
						In:          "query",
						Description: "Specific version; latest when omitted",
						Schema: &openapi3.SchemaRef{
							Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}},
						},
					},
				},
				&openapi3.ParameterRef{
					Value: &openapi3.Parameter{
						Name:        "template",
						In:          "query",
						Description: "Set to 1 to render the document; remaining query parameters become template variables",
						Schema: &openapi3.SchemaRef{
							Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
						},
					},
				},
			},
			Responses: g.responses(map[string]string{
				"200": "Configuration document",
				"400": "Invalid version parameter or template failure",
				"404": "Configuration not found",
				"500": "Persistence failure",
			}),
		},
	})

	spec.Paths.Set("/config/{service}/history", &openapi3.PathItem{
		Parameters: openapi3.Parameters{serviceParam},
		Get: &openapi3.Operation{
			OperationID: "getConfigurationHistory",
			Summary:     "Get version history for a service",
			Tags:        []string{"Configurations"},
			Responses: g.responses(map[string]string{
				"200": "Version history, newest first",
				"404": "Unknown service",
				"500": "Persistence failure",
			}),
		},
	})
}

func (g *Generator) addHealthPaths(spec *openapi3.T) {
	spec.Paths.Set("/health", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getHealth",
			Summary:     "Backend liveness probe",
			Tags:        []string{"Health"},
			Responses: g.responses(map[string]string{
				"200": "Service healthy",
				"503": "Backend unavailable",
			}),
		},
	})

	spec.Paths.Set("/ready", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getReady",
			Summary:     "Readiness probe",
			Tags:        []string{"Health"},
			Responses: g.responses(map[string]string{
				"200": "Service ready",
				"503": "Service not ready",
			}),
		},
	})
}

func (g *Generator) responses(byStatus map[string]string) *openapi3.Responses {
	responses := &openapi3.Responses{}
	for status, description := range byStatus {
		desc := description
		responses.Set(status, &openapi3.ResponseRef{
			Value: &openapi3.Response{Description: &desc},
		})
	}
	return responses
}
