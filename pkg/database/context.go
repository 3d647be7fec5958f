package database

import "context"

// StatementInfo, çalıştırılan komutun builder tarafındaki metadata'sıdır.
// Decorator'lar SQL parse etmeden tablo ve operation bilgisine ulaşır.
type StatementInfo struct {
	Operation Operation
	Table     string
	Tables    []string
	// Count, komutun CountExact için üretilmiş COUNT(*) sorgusu olduğunu belirtir.
	Count bool
}

type statementInfoKey struct{}

// WithStatementInfo, metadata'yı context'e ekler.
func WithStatementInfo(ctx context.Context, info StatementInfo) context.Context {
	return context.WithValue(ctx, statementInfoKey{}, info)
}

// StatementInfoFrom, context'teki metadata'yı döndürür.
func StatementInfoFrom(ctx context.Context) (StatementInfo, bool) {
	info, ok := ctx.Value(statementInfoKey{}).(StatementInfo)
	return info, ok
}
