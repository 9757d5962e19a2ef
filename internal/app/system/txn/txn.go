// internal/app/system/txn/txn.go

// Package txn wraps multi-document Mongo transactions.
//
// Transactions require a replica set or mongos. Development and CI often
// run a standalone mongod, so Run detects "transactions not supported"
// errors and re-executes the body without a session. Callers that cannot
// tolerate the non-transactional fallback (the archive cascade) use
// RunRequired instead, which propagates the unsupported error.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Body is the unit of work executed inside (or, on fallback, outside) a
// transaction. The ctx carries the mongo session when one is active, so
// collection operations made with it join the transaction automatically.
type Body func(ctx context.Context) error

// Run executes body inside a Mongo transaction. If the server does not
// support transactions, the body is re-run once without a session and a
// warning is logged; per-document atomicity still holds, multi-document
// atomicity does not.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, body Body) error {
	err := RunRequired(ctx, client, body)
	if err == nil {
		return nil
	}
	if !IsNotSupported(err) {
		return err
	}
	if log != nil {
		log.Warn("mongo transactions unavailable, running without transaction", zap.Error(err))
	}
	return body(ctx)
}

// RunRequired executes body inside a Mongo transaction and fails if the
// server cannot provide one.
func RunRequired(ctx context.Context, client *mongo.Client, body Body) error {
	session, err := client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, body(sc)
	})
	return err
}

// Server error codes returned when transactions are unavailable:
// 20 IllegalOperation (standalone), 51 and 263 variants reported by
// older servers and some proxies.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone mongod, old version, or a
// proxy that strips sessions).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if ce, ok := err.(mongo.CommandError); ok {
		cmdErr = ce
	} else if ce, ok := unwrapCommandError(err); ok {
		cmdErr = ce
	}
	if cmdErr.Code != 0 {
		return notSupportedCodes[cmdErr.Code]
	}

	// Fall back to message heuristics for drivers/proxies that flatten
	// the error into a string.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set") {
		return true
	}
	if strings.Contains(msg, "session") && strings.Contains(msg, "not supported") {
		return true
	}
	if strings.Contains(msg, "transaction") && strings.Contains(msg, "session") {
		return true
	}
	if strings.Contains(msg, "illegal operation") {
		return true
	}
	return false
}

func unwrapCommandError(err error) (mongo.CommandError, bool) {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if ce, ok := err.(mongo.CommandError); ok {
			return ce, true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return mongo.CommandError{}, false
		}
		err = u.Unwrap()
	}
	return mongo.CommandError{}, false
}
