package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lalitkumar100/mediCude-backend/internal/model"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
	"github.com/lalitkumar100/mediCude-backend/pkg/metrics"
)

var (
	errEmptyStatement       = errors.New("empty statement")
	errTransactionStatement = errors.New("transaction control statements are not allowed")

	returningPattern = regexp.MustCompile(`(?i)\bRETURNING\b`)
	leadingComment   = regexp.MustCompile(`^\s*(--[^\n]*\n|(?s:/\*.*?\*/))`)

	rowVerbs = map[string]bool{
		"SELECT":  true,
		"WITH":    true,
		"VALUES":  true,
		"SHOW":    true,
		"EXPLAIN": true,
		"TABLE":   true,
	}

	// Statements that would end or reshape the turn's own transaction.
	txVerbs = map[string]bool{
		"BEGIN":     true,
		"START":     true,
		"COMMIT":    true,
		"END":       true,
		"ROLLBACK":  true,
		"ABORT":     true,
		"SAVEPOINT": true,
		"RELEASE":   true,
		"PREPARE":   true,
		"SET":       true,
	}
)

// QueryExecutor runs model-authored SQL. A failing statement never aborts the batch.
type QueryExecutor struct {
	db     *gorm.DB
	logger *logger.Logger
}

func newQueryExecutor(db *gorm.DB, log *logger.Logger) *QueryExecutor {
	if log == nil {
		log = logger.NewNop()
	}
	return &QueryExecutor{db: db, logger: log}
}

// Execute runs the statements in order and returns one result per statement.
// Empty input yields nil. Inside a transaction each statement gets its own savepoint
// so a failure does not poison the statements after it.
func (e *QueryExecutor) Execute(ctx context.Context, queries []model.Query) []model.QueryResult {
	if len(queries) == 0 {
		return nil
	}

	results := make([]model.QueryResult, 0, len(queries))
	for i, q := range queries {
		result, err := e.run(ctx, i, q)
		if err != nil {
			e.logger.Warn("statement failed",
				zap.Int("index", i),
				zap.String("label", q.DisplayLabel()),
				zap.Error(err),
			)
			metrics.RecordStatement(true)
			results = append(results, model.FailedQueryResult(q))
			continue
		}
		metrics.RecordStatement(false)
		results = append(results, result)
	}
	return results
}

func (e *QueryExecutor) run(ctx context.Context, index int, q model.Query) (model.QueryResult, error) {
	if strings.TrimSpace(q.SQL) == "" {
		return model.QueryResult{}, errEmptyStatement
	}
	if controlsTransaction(q.SQL) {
		return model.QueryResult{}, errTransactionStatement
	}

	db := e.db.WithContext(ctx)
	savepoint := fmt.Sprintf("stmt_%d", index)
	isolated := inTransaction(db)

	if isolated {
		if err := db.Exec("SAVEPOINT " + savepoint).Error; err != nil {
			return model.QueryResult{}, fmt.Errorf("savepoint: %w", err)
		}
	}

	result, err := e.exec(db, q)
	if err != nil {
		if isolated {
			if rbErr := db.Exec("ROLLBACK TO SAVEPOINT " + savepoint).Error; rbErr != nil {
				return model.QueryResult{}, errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
			}
		}
		return model.QueryResult{}, err
	}

	if isolated {
		if err := db.Exec("RELEASE SAVEPOINT " + savepoint).Error; err != nil {
			return model.QueryResult{}, fmt.Errorf("release savepoint: %w", err)
		}
	}
	return result, nil
}

func (e *QueryExecutor) exec(db *gorm.DB, q model.Query) (model.QueryResult, error) {
	if !returnsRows(q.SQL) {
		res := db.Exec(q.SQL)
		if res.Error != nil {
			return model.QueryResult{}, res.Error
		}
		return model.QueryResult{
			Rows:    res.RowsAffected,
			Columns: 0,
			Data:    []map[string]any{},
			Label:   q.DisplayLabel(),
		}, nil
	}

	rows, err := db.Raw(q.SQL).Rows()
	if err != nil {
		return model.QueryResult{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return model.QueryResult{}, err
	}

	data := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return model.QueryResult{}, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return model.QueryResult{}, err
	}

	return model.QueryResult{
		Rows:    int64(len(data)),
		Columns: len(columns),
		Data:    data,
		Label:   q.DisplayLabel(),
	}, nil
}

// controlsTransaction reports whether any ;-separated piece of sql starts with a
// transaction control verb, so "SELECT 1; COMMIT" is caught as well.
func controlsTransaction(sql string) bool {
	for _, piece := range strings.Split(sql, ";") {
		if verb, _ := leadingVerb(piece); txVerbs[verb] {
			return true
		}
	}
	return false
}

// leadingVerb returns the upper-cased first keyword of a statement, skipping leading
// comments and parentheses, along with the statement text from that keyword on.
func leadingVerb(sql string) (string, string) {
	s := sql
	for {
		loc := leadingComment.FindStringIndex(s)
		if loc == nil {
			break
		}
		s = s[loc[1]:]
	}
	s = strings.TrimLeft(s, "( \t\r\n")

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", s
	}
	return strings.ToUpper(strings.TrimRight(fields[0], ";")), s
}

// returnsRows decides whether a statement produces a result set.
func returnsRows(sql string) bool {
	verb, s := leadingVerb(sql)
	if verb == "" {
		return false
	}
	if rowVerbs[verb] {
		return true
	}
	return returningPattern.MatchString(s)
}

func inTransaction(db *gorm.DB) bool {
	_, ok := db.Statement.ConnPool.(gorm.TxCommitter)
	return ok
}
