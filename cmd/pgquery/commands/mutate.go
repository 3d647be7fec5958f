package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biyonik/pgquery/internal/config"
	"github.com/biyonik/pgquery/internal/http/request"
	"github.com/biyonik/pgquery/pkg/database"
	"github.com/spf13/cobra"
)

// mutationOptions, insert/update/upsert komutlarının ortak flag'leridir.
type mutationOptions struct {
	data       string
	returning  bool
	onConflict string
	query      *queryOptions
}

// readData, --data değerini JSON olarak çözer. "@file.json" dosyadan, "-"
// stdin'den okur.
func readData(raw string, stdin io.Reader) (any, error) {
	var payload []byte
	switch {
	case raw == "":
		return nil, fmt.Errorf("--data is required")
	case raw == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		payload = b
	case strings.HasPrefix(raw, "@"):
		b, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, err
		}
		payload = b
	default:
		payload = []byte(raw)
	}

	var data any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid --data JSON: %w", err)
	}
	switch data.(type) {
	case map[string]any, []any:
		return data, nil
	default:
		return nil, fmt.Errorf("--data must be a JSON object or array")
	}
}

type mutationKind int

const (
	kindInsert mutationKind = iota
	kindUpdate
	kindUpsert
)

// build, mutation zincirini kurar. Update için --eq/--neq/... filtreleri de
// uygulanır.
func (o *mutationOptions) build(client *database.Client, kind mutationKind, table string, data any) (*database.QueryBuilder, error) {
	qb := client.From(table)

	switch kind {
	case kindInsert:
		qb = qb.Insert(data)
	case kindUpsert:
		var opts []database.UpsertOption
		if o.onConflict != "" {
			opts = append(opts, database.OnConflict(o.onConflict))
		}
		qb = qb.Upsert(data, opts...)
	case kindUpdate:
		values, ok := data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("update --data must be a JSON object")
		}
		qb = qb.Update(values)
		if o.query != nil {
			v, err := o.query.values()
			if err != nil {
				return nil, err
			}
			params, err := request.ParseParams(v)
			if err != nil {
				return nil, err
			}
			qb = params.ApplyFilters(qb)
		}
	}

	if o.returning && kind != kindUpsert {
		qb = qb.Returning()
	}
	return qb, nil
}

func newMutationCommand(open ClientFactory, kind mutationKind, use, short, long string) *cobra.Command {
	opts := &mutationOptions{}
	if kind == kindUpdate {
		opts.query = &queryOptions{filters: make(map[string]*[]string, len(filterFlags)), limit: -1}
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readData(opts.data, cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger()

			client, closeFn, err := open(cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			qb, err := opts.build(client, kind, args[0], data)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), qb.Execute(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", `Row data as JSON, "@file.json" or "-" for stdin`)
	if kind != kindUpsert {
		cmd.Flags().BoolVar(&opts.returning, "returning", false, "Return the affected rows")
	} else {
		cmd.Flags().StringVar(&opts.onConflict, "on-conflict", "", `Conflict target columns, comma separated (default "id")`)
	}
	if kind == kindUpdate {
		for _, op := range filterFlags {
			opts.query.filters[op] = cmd.Flags().StringArray(op, nil, fmt.Sprintf("Filter col=value with the %s operator (repeatable)", op))
		}
		cmd.Flags().StringArrayVar(&opts.query.not, "not", nil, "Negated filter col=is.null|is.true|eq.value (repeatable)")
	}
	return cmd
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(open ClientFactory) *cobra.Command {
	return newMutationCommand(open, kindInsert, "insert <table>", "Insert one or more rows",
		`Insert one row (JSON object) or many rows (JSON array). All rows must share the same columns.

Example:
  pgquery insert users --data '[{"name":"A"},{"name":"B"}]' --returning`)
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(open ClientFactory) *cobra.Command {
	return newMutationCommand(open, kindUpdate, "update <table>", "Update rows matching the filters",
		`Update rows matching the filters. Without filters every row is updated.

Example:
  pgquery update users --data '{"name":"Jane"}' --eq id=1 --returning`)
}

// NewUpsertCommand creates the upsert command.
func NewUpsertCommand(open ClientFactory) *cobra.Command {
	return newMutationCommand(open, kindUpsert, "upsert <table>", "Insert rows or update them on conflict",
		`Insert rows, updating the non-conflict columns when the conflict target already exists.
The affected rows are always returned.

Example:
  pgquery upsert users --data '{"email":"a@x.io","name":"A"}' --on-conflict email`)
}
