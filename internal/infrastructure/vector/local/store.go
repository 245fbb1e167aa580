package local

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var (
	metaKey        = []byte("index:meta")
	fragmentPrefix = []byte("index:fragment:")
)

type storeMeta struct {
	EmbedModel string `json:"embed_model"`
	Count      int    `json:"count"`
}

func fragmentKey(i int) []byte {
	return fmt.Appendf(nil, "%s%08d", fragmentPrefix, i)
}

func openStore(path string) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return db, nil
}

// writeStore replaces the store content with entries.
func writeStore(path, embedModel string, entries []entry) error {
	db, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DropAll(); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	wb := db.NewWriteBatch()
	defer wb.Cancel()
	for i, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode fragment %d: %w", i, err)
		}
		if err := wb.Set(fragmentKey(i), raw); err != nil {
			return fmt.Errorf("write fragment %d: %w", i, err)
		}
	}
	meta, err := json.Marshal(storeMeta{EmbedModel: embedModel, Count: len(entries)})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := wb.Set(metaKey, meta); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush store: %w", err)
	}
	return nil
}

// readStore loads every entry, failing on a model mismatch or an incomplete store.
func readStore(path, embedModel string) ([]entry, error) {
	db, err := openStore(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var meta storeMeta
	var entries []entry
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return errors.New("store has no metadata")
			}
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return fmt.Errorf("decode meta: %w", err)
		}
		if meta.EmbedModel != embedModel {
			return fmt.Errorf("embedding model mismatch: stored %q, configured %q", meta.EmbedModel, embedModel)
		}

		entries = make([]entry, 0, meta.Count)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(fragmentPrefix); it.ValidForPrefix(fragmentPrefix); it.Next() {
			var e entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("decode fragment %s: %w", it.Item().Key(), err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(entries) != meta.Count {
		return nil, fmt.Errorf("store holds %d fragments, metadata says %d", len(entries), meta.Count)
	}
	return entries, nil
}
