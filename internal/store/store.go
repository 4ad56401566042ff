// Package store provides the SQLite-backed part of the planner's view of
// the chain: per-address UTXOs, the inscription index, and the service-fee
// whitelist. Store has no GetTxs method, so it is not a full
// planner.Collaborator on its own; collaborator.HTTPView delegates its
// inscription and whitelist lookups to it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/ordforge/inscribed/internal/planner"
)

func parseOutPoint(txid string, vout uint32) (planner.OutPoint, error) {
	h, err := parseHash(txid)
	if err != nil {
		return planner.OutPoint{}, err
	}
	return planner.OutPoint{Txid: h, Vout: vout}, nil
}

func parseHash(s string) (chainhash.Hash, error) {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("parse txid %q: %w", s, err)
	}
	return *h, nil
}

// Store persists the wallet-facing view the planner consumes through
// planner.Collaborator.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Config holds store configuration.
type Config struct {
	DataDir string
}

// New opens (creating if absent) the inscription-index database under
// cfg.DataDir.
func New(cfg Config) (*Store, error) {
	dataDir := expandPath(cfg.DataDir)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "inscribed.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(1) // sqlite3 only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS utxos (
		address TEXT NOT NULL,
		txid TEXT NOT NULL,
		vout INTEGER NOT NULL,
		value INTEGER NOT NULL,
		height INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (txid, vout)
	);
	CREATE INDEX IF NOT EXISTS idx_utxos_address ON utxos(address);
	CREATE INDEX IF NOT EXISTS idx_utxos_height ON utxos(height);

	CREATE TABLE IF NOT EXISTS sync_state (
		chain TEXT PRIMARY KEY,
		height INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS inscriptions (
		sat_txid TEXT NOT NULL,
		sat_vout INTEGER NOT NULL,
		sat_offset INTEGER NOT NULL,
		inscription_txid TEXT NOT NULL,
		inscription_index INTEGER NOT NULL,
		address TEXT NOT NULL,
		PRIMARY KEY (sat_txid, sat_vout, sat_offset)
	);
	CREATE INDEX IF NOT EXISTS idx_inscriptions_address ON inscriptions(address);
	CREATE INDEX IF NOT EXISTS idx_inscriptions_id ON inscriptions(inscription_txid, inscription_index);

	CREATE TABLE IF NOT EXISTS whitelist (
		address TEXT PRIMARY KEY,
		added_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UtxosAt implements planner.Collaborator.
func (s *Store) UtxosAt(ctx context.Context, addr planner.Address) (planner.UtxoSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT txid, vout, value FROM utxos WHERE address = ?`, addr.Encoded)
	if err != nil {
		return nil, fmt.Errorf("query utxos: %w", err)
	}
	defer rows.Close()

	out := planner.UtxoSet{}
	for rows.Next() {
		var txid string
		var vout uint32
		var value uint64
		if err := rows.Scan(&txid, &vout, &value); err != nil {
			return nil, fmt.Errorf("scan utxo row: %w", err)
		}
		op, err := parseOutPoint(txid, vout)
		if err != nil {
			return nil, err
		}
		out[op] = value
	}
	return out, rows.Err()
}

// InscriptionsAt implements planner.Collaborator.
func (s *Store) InscriptionsAt(ctx context.Context, addr planner.Address) (planner.InscriptionIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT sat_txid, sat_vout, sat_offset, inscription_txid, inscription_index
		FROM inscriptions WHERE address = ?`, addr.Encoded)
	if err != nil {
		return nil, fmt.Errorf("query inscriptions: %w", err)
	}
	defer rows.Close()

	idx := planner.InscriptionIndex{}
	for rows.Next() {
		var satTxid, inscTxid string
		var satVout uint32
		var satOffset uint64
		var inscIndex uint32
		if err := rows.Scan(&satTxid, &satVout, &satOffset, &inscTxid, &inscIndex); err != nil {
			return nil, fmt.Errorf("scan inscription row: %w", err)
		}
		op, err := parseOutPoint(satTxid, satVout)
		if err != nil {
			return nil, err
		}
		itxid, err := parseHash(inscTxid)
		if err != nil {
			return nil, err
		}
		idx[planner.Satpoint{Outpoint: op, Offset: satOffset}] = planner.InscriptionID{Txid: itxid, Index: inscIndex}
	}
	return idx, rows.Err()
}

// InscriptionSatpoint implements planner.Collaborator.
func (s *Store) InscriptionSatpoint(ctx context.Context, id planner.InscriptionID) (planner.Satpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT sat_txid, sat_vout, sat_offset FROM inscriptions
		WHERE inscription_txid = ? AND inscription_index = ?`, id.Txid.String(), id.Index)

	var satTxid string
	var satVout uint32
	var satOffset uint64
	if err := row.Scan(&satTxid, &satVout, &satOffset); err != nil {
		if err == sql.ErrNoRows {
			return planner.Satpoint{}, fmt.Errorf("%w: inscription %s not tracked", planner.ErrInvalidAddress, id)
		}
		return planner.Satpoint{}, fmt.Errorf("query inscription satpoint: %w", err)
	}
	op, err := parseOutPoint(satTxid, satVout)
	if err != nil {
		return planner.Satpoint{}, err
	}
	return planner.Satpoint{Outpoint: op, Offset: satOffset}, nil
}

// IsWhitelisted implements planner.Collaborator.
func (s *Store) IsWhitelisted(ctx context.Context, addr planner.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM whitelist WHERE address = ?`, addr.Encoded)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("query whitelist: %w", err)
	}
	return true, nil
}

// SetWhitelisted adds or removes addr from the service-fee whitelist.
func (s *Store) SetWhitelisted(ctx context.Context, addr planner.Address, whitelisted bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if whitelisted {
		_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO whitelist (address, added_at) VALUES (?, ?)`, addr.Encoded, now.Unix())
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM whitelist WHERE address = ?`, addr.Encoded)
	return err
}

// UnspentOutputsByOutpoints implements planner.Collaborator.
func (s *Store) UnspentOutputsByOutpoints(ctx context.Context, outpoints []planner.OutPoint) (planner.UtxoSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := planner.UtxoSet{}
	for _, op := range outpoints {
		row := s.db.QueryRowContext(ctx, `SELECT value FROM utxos WHERE txid = ? AND vout = ?`, op.Txid.String(), op.Vout)
		var value uint64
		if err := row.Scan(&value); err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("query outpoint %s: %w", op, err)
		}
		out[op] = value
	}
	return out, nil
}

// UpsertUtxo records or updates a cardinal UTXO for addr, as observed from
// an upstream chain view (GetTxs/broadcast confirmation flow lives outside
// the planner's Collaborator boundary).
func (s *Store) UpsertUtxo(ctx context.Context, addr planner.Address, op planner.OutPoint, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO utxos (address, txid, vout, value) VALUES (?, ?, ?, ?)
		ON CONFLICT(txid, vout) DO UPDATE SET value = excluded.value, address = excluded.address`,
		addr.Encoded, op.Txid.String(), op.Vout, value)
	return err
}

// DeleteUtxo removes a spent outpoint from the cardinal view.
func (s *Store) DeleteUtxo(ctx context.Context, op planner.OutPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM utxos WHERE txid = ? AND vout = ?`, op.Txid.String(), op.Vout)
	return err
}

// RecordInscription tracks a newly revealed inscription at satpoint,
// attributing it to addr for the per-address inscription index.
func (s *Store) RecordInscription(ctx context.Context, addr planner.Address, sp planner.Satpoint, id planner.InscriptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO inscriptions
			(sat_txid, sat_vout, sat_offset, inscription_txid, inscription_index, address)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sp.Outpoint.Txid.String(), sp.Outpoint.Vout, sp.Offset, id.Txid.String(), id.Index, addr.Encoded)
	return err
}

// ReorgHeight discards every UTXO confirmed at or above height, matching a
// chain reorg's invalidation of blocks from that height on. Callers are
// expected to re-sync the affected range afterward.
func (s *Store) ReorgHeight(ctx context.Context, height int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM utxos WHERE height >= ?`, height)
	return err
}

// SyncHeight returns the last recorded sync height for chain.
func (s *Store) SyncHeight(ctx context.Context, chain string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT height FROM sync_state WHERE chain = ?`, chain)
	var height int64
	if err := row.Scan(&height); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("query sync height: %w", err)
	}
	return height, nil
}

// SetSyncHeight records chain's last-synced height.
func (s *Store) SetSyncHeight(ctx context.Context, chain string, height int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (chain, height, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(chain) DO UPDATE SET height = excluded.height, updated_at = excluded.updated_at`,
		chain, height, now.Unix())
	return err
}

func expandPath(p string) string {
	if p == "" {
		return "./data"
	}
	if p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}
