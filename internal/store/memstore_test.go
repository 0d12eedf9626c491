package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemStoreSetGetDelete(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if err := s.WithTx(ctx, func(tx Tx) error {
		return tx.Set([]byte("a"), []byte("1"))
	}); err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	var value []byte
	var ok bool
	if err := s.WithTx(ctx, func(tx Tx) error {
		var err error
		value, ok, err = tx.Get([]byte("a"))
		return err
	}); err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if !ok || string(value) != "1" {
		t.Fatalf("expected value 1, got %q ok=%v", value, ok)
	}

	if err := s.WithTx(ctx, func(tx Tx) error {
		return tx.Delete([]byte("a"))
	}); err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if err := s.WithTx(ctx, func(tx Tx) error {
		_, ok, err := tx.Get([]byte("a"))
		if ok {
			t.Fatalf("expected key to be deleted")
		}
		return err
	}); err != nil {
		t.Fatalf("WithTx: %v", err)
	}
}

func TestMemStoreRollsBackOnError(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	wantErr := errors.New("boom")

	err := s.WithTx(ctx, func(tx Tx) error {
		if err := tx.Set([]byte("a"), []byte("1")); err != nil {
			return err
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}

	_ = s.WithTx(ctx, func(tx Tx) error {
		_, ok, _ := tx.Get([]byte("a"))
		if ok {
			t.Fatalf("expected rolled-back write to be absent")
		}
		return nil
	})
}

func TestMemStoreIteratePrefix(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_ = s.WithTx(ctx, func(tx Tx) error {
		_ = tx.Set([]byte("pool_info:a"), []byte("1"))
		_ = tx.Set([]byte("pool_info:b"), []byte("2"))
		_ = tx.Set([]byte("user_info:a"), []byte("3"))
		return nil
	})

	var kvs []KV
	_ = s.WithTx(ctx, func(tx Tx) error {
		var err error
		kvs, err = tx.Iterate([]byte("pool_info:"))
		return err
	})
	if len(kvs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(kvs))
	}
	if string(kvs[0].Key) != "pool_info:a" || string(kvs[1].Key) != "pool_info:b" {
		t.Fatalf("unexpected ordering: %+v", kvs)
	}
}
