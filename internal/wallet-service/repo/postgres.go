package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Postgres implementa operações de carteira em banco
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de carteiras
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// GetOrCreateWallet retorna o walletId e saldo de um usuário, criando a carteira se não existir
// Usa transação para garantir atomicidade
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	var bal int64
	err = tx.QueryRowContext(ctx, `SELECT id, balance_cents FROM wallets WHERE user_id=$1`, userID).Scan(&id, &bal)
	if err == sql.ErrNoRows {
		id = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1)`,
			id, userID); err != nil {
			return "", 0, err
		}
		bal = 0
	} else if err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}

	return id, bal, nil
}

// Deposit incrementa o saldo da carteira e registra a operação no ledger
// Garante lock pessimista na linha da carteira
func (p *Postgres) Deposit(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&id); err != nil {
		return "", 0, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`, amount, id); err != nil {
		return "", 0, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description) VALUES($1,'DEPOSIT',$2,$3)`,
		id, amount, "deposit:"+externalRef); err != nil {
		return "", 0, err
	}

	if err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE id=$1`, id).Scan(&newBalance); err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return id, newBalance, nil
}

// Debit debita o valor da aposta, rejeitando por saldo insuficiente
// Garante idempotência por (wallet_id, external_ref): repetir o mesmo débito
// devolve a operação original sem debitar de novo
func (p *Postgres) Debit(ctx context.Context, userID string, amount int64, externalRef string) (operationID string, newBalance int64, err error) {
	return p.apply(ctx, userID, -amount, externalRef, "DEBIT")
}

// Credit credita o prêmio de um cashout, idempotente por (wallet_id, external_ref)
func (p *Postgres) Credit(ctx context.Context, userID string, amount int64, externalRef string) (operationID string, newBalance int64, err error) {
	return p.apply(ctx, userID, amount, externalRef, "CREDIT")
}

// apply executa uma operação assinada sobre o saldo dentro de uma transação
// com lock pessimista na linha da carteira
func (p *Postgres) apply(ctx context.Context, userID string, delta int64, externalRef, opType string) (string, int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var walletID string
	var balance int64
	if err = tx.QueryRowContext(ctx, `SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID, &balance); err != nil {
		if err == sql.ErrNoRows {
			return "", 0, ErrNotFound
		}
		return "", 0, err
	}

	// Idempotência: verifica se a operação já foi aplicada para o mesmo external_ref
	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM wallet_operations WHERE wallet_id=$1 AND external_ref=$2`, walletID, externalRef).Scan(&existing)
	if err == nil {
		return existing, balance, nil // já aplicada
	} else if err != sql.ErrNoRows {
		return "", 0, err
	}

	if balance+delta < 0 {
		return "", 0, ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`, delta, walletID); err != nil {
		return "", 0, err
	}

	operationID := uuid.New().String()
	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_operations(id, wallet_id, external_ref, operation_type, amount_cents) VALUES($1,$2,$3,$4,$5)`,
		operationID, walletID, externalRef, opType, delta); err != nil {
		return "", 0, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description) VALUES($1,$2,$3,$4)`,
		walletID, opType, delta, opType+":"+externalRef); err != nil {
		return "", 0, err
	}

	if err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE id=$1`, walletID).Scan(&balance); err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return operationID, balance, nil
}
