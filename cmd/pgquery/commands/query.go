package commands

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/biyonik/pgquery/internal/config"
	"github.com/biyonik/pgquery/internal/http/request"
	"github.com/biyonik/pgquery/pkg/database"
	"github.com/spf13/cobra"
)

// filterFlags, karşılaştırma operatörü başına tekrarlanabilir "col=val" flag'leri.
var filterFlags = []string{"eq", "neq", "gt", "gte", "lt", "lte", "is"}

// queryOptions, query komutunun flag değerleridir.
type queryOptions struct {
	selectCols string
	filters    map[string]*[]string
	not        []string
	orders     []string
	limit      int
	single     bool
	count      bool
}

// values, flag'leri gateway'in kullandığı PostgREST query string'ine çevirir;
// böylece CLI ve REST aynı ayrıştırıcıyı paylaşır.
func (o *queryOptions) values() (url.Values, error) {
	v := url.Values{}
	if o.selectCols != "" {
		v.Set("select", o.selectCols)
	}

	for _, op := range filterFlags {
		pairs := o.filters[op]
		if pairs == nil {
			continue
		}
		for _, pair := range *pairs {
			col, val, ok := strings.Cut(pair, "=")
			if !ok || strings.TrimSpace(col) == "" {
				return nil, fmt.Errorf("--%s expects col=value, got %q", op, pair)
			}
			v.Add(strings.TrimSpace(col), op+"."+val)
		}
	}
	for _, pair := range o.not {
		col, expr, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return nil, fmt.Errorf("--not expects col=op.value, got %q", pair)
		}
		v.Add(strings.TrimSpace(col), "not."+expr)
	}

	if len(o.orders) > 0 {
		v.Set("order", strings.Join(o.orders, ","))
	}
	if o.limit >= 0 {
		v.Set("limit", strconv.Itoa(o.limit))
	}
	if o.single {
		v.Set("single", "true")
	}
	if o.count {
		v.Set("count", "exact")
	}
	return v, nil
}

// build, flag'lerden select zincirini kurar.
func (o *queryOptions) build(client *database.Client, table string) (*database.QueryBuilder, error) {
	values, err := o.values()
	if err != nil {
		return nil, err
	}
	params, err := request.ParseParams(values)
	if err != nil {
		return nil, err
	}

	qb := client.From(table).Select(params.Select, params.SelectOptions()...)
	qb = params.ApplyFilters(qb)
	return params.ApplyShaping(qb), nil
}

// NewQueryCommand creates the query command.
func NewQueryCommand(open ClientFactory) *cobra.Command {
	opts := &queryOptions{filters: make(map[string]*[]string, len(filterFlags))}

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Run a select chain and print the result envelope",
		Long: `Run a select chain against a table and print the {data, error, count} envelope.

Examples:
  pgquery query users --eq status=active --order created_at.desc --limit 10
  pgquery query orders --select "*, products(title)" --count
  pgquery query users --is deleted_at=null --single`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			qb, err := opts.build(client, args[0])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), qb.Execute(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&opts.selectCols, "select", "*", "Columns to return, optionally with one embedded relation")
	for _, op := range filterFlags {
		opts.filters[op] = cmd.Flags().StringArray(op, nil, fmt.Sprintf("Filter col=value with the %s operator (repeatable)", op))
	}
	cmd.Flags().StringArrayVar(&opts.not, "not", nil, "Negated filter col=is.null|is.true|eq.value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.orders, "order", nil, "Order by col or col.desc (repeatable)")
	cmd.Flags().IntVar(&opts.limit, "limit", -1, "Maximum number of rows")
	cmd.Flags().BoolVar(&opts.single, "single", false, "Return exactly one row or fail with Row not found")
	cmd.Flags().BoolVar(&opts.count, "count", false, "Include the exact total count")

	return cmd
}
