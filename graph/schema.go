package graph

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/graph-gophers/graphql-go"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// SchemaSDL - исходный текст схемы сервиса.
//
//go:embed schema.graphqls
var SchemaSDL string

// SchemaOptions настраивает исполнение запросов.
type SchemaOptions struct {
	// MaxParallelism ограничивает число резолверов, выполняемых параллельно.
	// Ноль оставляет значение graphql-go по умолчанию.
	MaxParallelism int
}

// LoadSchema разбирает и валидирует схему по спецификации GraphQL.
func LoadSchema() (*ast.Schema, error) {
	schema, gqlErr := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: SchemaSDL})
	if gqlErr != nil {
		return nil, fmt.Errorf("invalid schema: %w", gqlErr)
	}
	return schema, nil
}

// PrintSchema пишет схему в каноническом виде.
func PrintSchema(w io.Writer) error {
	schema, err := LoadSchema()
	if err != nil {
		return err
	}
	formatter.NewFormatter(w).FormatSchema(schema)
	return nil
}

// NewExecutableSchema связывает схему с резолверами. Все поля схемы
// должны иметь резолверы, иначе возвращается ошибка.
func NewExecutableSchema(r *Resolver, opts SchemaOptions) (*graphql.Schema, error) {
	if _, err := LoadSchema(); err != nil {
		return nil, err
	}
	schemaOpts := []graphql.SchemaOpt{graphql.UseStringDescriptions()}
	if opts.MaxParallelism > 0 {
		schemaOpts = append(schemaOpts, graphql.MaxParallelism(opts.MaxParallelism))
	}
	schema, err := graphql.ParseSchema(SchemaSDL, r.root(), schemaOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to bind resolvers: %w", err)
	}
	return schema, nil
}
