package mappers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
	"github.com/abdul-hamid-achik/rowspec/packages/db"
)

// SQL runs a script and maps the rows of its last query. Each Map call gets
// a fresh connection, so an in-memory database starts empty.
type SQL struct {
	Conn string
}

// NewSQL takes a connection string; the default is a private in-memory
// SQLite database.
func NewSQL(arg string) (params.DataMapper, error) {
	conn := strings.TrimSpace(arg)
	if conn == "" {
		conn = db.Memory
	}
	return &SQL{Conn: conn}, nil
}

func (s *SQL) Map(r io.Reader) ([]params.Row, error) {
	script, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("sql: %w", err)
	}

	client, err := db.NewClient(s.Conn)
	if err != nil {
		return nil, fmt.Errorf("sql: %w", err)
	}
	defer client.Close()

	result, err := client.RunScript(context.Background(), string(script))
	if err != nil {
		return nil, fmt.Errorf("sql: %w", err)
	}

	rows := []params.Row{}
	if result == nil {
		return rows, nil
	}
	for _, values := range result.Rows {
		rows = append(rows, params.Row(values))
	}
	return rows, nil
}
