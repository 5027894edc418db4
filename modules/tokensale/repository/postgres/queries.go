package postgres

import "github.com/jackc/pgx/v5/pgtype"

const createTransactionQuery = `INSERT INTO tokensale_transactions ("seq", "id", "method", "sender", "timestamp", "params") VALUES ($1, $2, $3, $4, $5, $6)`

const createEventQuery = `INSERT INTO tokensale_events ("tx_seq", "log_index", "name", "source", "accounts", "data", "timestamp") VALUES ($1, $2, $3, $4, $5, $6, $7)`

const getTransactionsQuery = `SELECT "seq", "id", "method", "sender", "timestamp", "params", "created_at" FROM tokensale_transactions
WHERE "seq" >= $1
ORDER BY "seq" ASC
LIMIT $2`

const getLatestTransactionSeqQuery = `SELECT "seq" FROM tokensale_transactions ORDER BY "seq" DESC LIMIT 1`

const getEventsByAccountQuery = `SELECT "tx_seq", "log_index", "name", "source", "accounts", "data", "timestamp" FROM tokensale_events
WHERE "accounts" @> ARRAY[$1::TEXT]
ORDER BY "tx_seq" DESC, "log_index" DESC
LIMIT $2 OFFSET $3`

const getEventsByTransactionQuery = `SELECT "tx_seq", "log_index", "name", "source", "accounts", "data", "timestamp" FROM tokensale_events
WHERE "tx_seq" = $1
ORDER BY "log_index" ASC`

type transactionRow struct {
	Seq       int64              `db:"seq"`
	ID        pgtype.UUID        `db:"id"`
	Method    string             `db:"method"`
	Sender    string             `db:"sender"`
	Timestamp pgtype.Timestamptz `db:"timestamp"`
	Params    []byte             `db:"params"`
	CreatedAt pgtype.Timestamptz `db:"created_at"`
}

type eventRow struct {
	TxSeq     int64              `db:"tx_seq"`
	LogIndex  int32              `db:"log_index"`
	Name      string             `db:"name"`
	Source    string             `db:"source"`
	Accounts  []string           `db:"accounts"`
	Data      []byte             `db:"data"`
	Timestamp pgtype.Timestamptz `db:"timestamp"`
}
