package postgres

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/palletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/palletledger/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// queriesFor runs against tx when one is given and against db otherwise.
func queriesFor(db generated.DBTX, tx usecase.Transaction) *generated.Queries {
	if tx == nil {
		return generated.New(db)
	}
	return generated.New(tx.(*Tx).PgxTx())
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func quantityToNumeric(q int64) pgtype.Numeric {
	return decimalToNumeric(decimal.NewFromInt(q))
}

// numericToQuantity rejects fractional values; pallets are counted whole.
func numericToQuantity(n pgtype.Numeric) (int64, error) {
	d := numericToDecimal(n)
	if !d.IsInteger() {
		return 0, fmt.Errorf("fractional pallet quantity %s", d)
	}

	return d.IntPart(), nil
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// optionalTimestamptz stores the zero time as NULL.
func optionalTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}

	return timeToPgTimestamptz(t)
}

func pgTimestamptzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
