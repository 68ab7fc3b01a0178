package sheetstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore is a Store kept in a local bbolt file. Each spreadsheet id is a
// top-level bucket holding one nested bucket per tab; rows are keyed by
// sequence number.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the database at path
func OpenBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ReadColumn returns the first cell of every row in the tab
func (s *BoltStore) ReadColumn(ctx context.Context, spreadsheetID, tab string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var values []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tabBucket(tx, spreadsheetID, tab)
		if b == nil {
			return fmt.Errorf("%w: %s", ErrTabNotFound, tab)
		}
		return b.ForEach(func(_, v []byte) error {
			var row []string
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("corrupt row in %s: %w", tab, err)
			}
			if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
				values = append(values, strings.TrimSpace(row[0]))
			}
			return nil
		})
	})
	return values, err
}

// AppendRows adds rows after the existing ones in one transaction
func (s *BoltStore) AppendRows(ctx context.Context, spreadsheetID, tab string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tabBucket(tx, spreadsheetID, tab)
		if b == nil {
			return fmt.Errorf("%w: %s", ErrTabNotFound, tab)
		}
		for _, row := range rows {
			if err := putRow(b, row); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureTab creates the tab bucket and writes the header as its first row
func (s *BoltStore) EnsureTab(ctx context.Context, spreadsheetID, tab string, header []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		sheet, err := tx.CreateBucketIfNotExists([]byte(spreadsheetID))
		if err != nil {
			return err
		}
		if sheet.Bucket([]byte(tab)) != nil {
			return nil
		}
		b, err := sheet.CreateBucket([]byte(tab))
		if err != nil {
			return err
		}
		if len(header) > 0 {
			return putRow(b, header)
		}
		return nil
	})
}

// Rows returns every stored row of a tab in insertion order
func (s *BoltStore) Rows(spreadsheetID, tab string) ([][]string, error) {
	var rows [][]string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tabBucket(tx, spreadsheetID, tab)
		if b == nil {
			return fmt.Errorf("%w: %s", ErrTabNotFound, tab)
		}
		return b.ForEach(func(_, v []byte) error {
			var row []string
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			rows = append(rows, row)
			return nil
		})
	})
	return rows, err
}

func tabBucket(tx *bolt.Tx, spreadsheetID, tab string) *bolt.Bucket {
	sheet := tx.Bucket([]byte(spreadsheetID))
	if sheet == nil {
		return nil
	}
	return sheet.Bucket([]byte(tab))
}

func putRow(b *bolt.Bucket, row []string) error {
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return b.Put(key, data)
}
