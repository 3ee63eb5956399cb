package kv

import (
	"strings"

	"github.com/tecbot/gorocksdb"
)

// Rocks is the RocksDB backend for deployments that already run one.
type Rocks struct {
	db *gorocksdb.DB
	ro *gorocksdb.ReadOptions
	wo *gorocksdb.WriteOptions
}

func OpenRocks(path string) (*Rocks, error) {
	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)

	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		return nil, err
	}
	return &Rocks{
		db: db,
		ro: gorocksdb.NewDefaultReadOptions(),
		wo: gorocksdb.NewDefaultWriteOptions(),
	}, nil
}

func (s *Rocks) Get(key string) ([]byte, bool, error) {
	val, err := s.db.Get(s.ro, []byte(key))
	if err != nil {
		return nil, false, err
	}
	defer val.Free()

	if !val.Exists() {
		return nil, false, nil
	}
	// val.Data() is RocksDB-owned memory, gone after Free; copy out.
	return append([]byte(nil), val.Data()...), true, nil
}

func (s *Rocks) Set(key string, val []byte) error {
	return s.db.Put(s.wo, []byte(key), val)
}

func (s *Rocks) Remove(key string) error {
	return s.db.Delete(s.wo, []byte(key))
}

func (s *Rocks) Keys(prefix string) ([]string, error) {
	it := s.db.NewIterator(s.ro)
	defer it.Close()

	var out []string
	for it.Seek([]byte(prefix)); it.Valid(); it.Next() {
		k := string(it.Key().Data())
		it.Key().Free()
		if !strings.HasPrefix(k, prefix) {
			break
		}
		out = append(out, k)
	}
	return out, it.Err()
}

func (s *Rocks) Close() error {
	if s.ro != nil {
		s.ro.Destroy()
	}
	if s.wo != nil {
		s.wo.Destroy()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}
