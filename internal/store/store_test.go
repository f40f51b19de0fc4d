// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
)

type sampleRecord struct {
	DayKey      string   `json:"day_key"`
	SelectedIDs []string `json:"selected_ids"`
}

// stores returns one of each Store implementation for shared conformance tests.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	badgerStore, err := OpenBadger(t.TempDir(), zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = badgerStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"badger": badgerStore,
	}
}

func TestStoreRoundtrip(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
			}

			if err := s.Set(ctx, "shelf:top-picks", []byte("v1")); err != nil {
				t.Fatalf("Set: %v", err)
			}

			got, ok, err := s.Get(ctx, "shelf:top-picks")
			if err != nil || !ok || !bytes.Equal(got, []byte("v1")) {
				t.Fatalf("Get = %q ok=%v err=%v, want v1", got, ok, err)
			}

			// Overwrite replaces wholesale.
			if err := s.Set(ctx, "shelf:top-picks", []byte("v2")); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			got, _, _ = s.Get(ctx, "shelf:top-picks")
			if !bytes.Equal(got, []byte("v2")) {
				t.Fatalf("Get after overwrite = %q, want v2", got)
			}

			if err := s.Remove(ctx, "shelf:top-picks"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if _, ok, _ := s.Get(ctx, "shelf:top-picks"); ok {
				t.Fatal("key still present after Remove")
			}

			// Removing an absent key is a no-op.
			if err := s.Remove(ctx, "shelf:top-picks"); err != nil {
				t.Fatalf("Remove absent: %v", err)
			}
		})
	}
}

func TestStoreSetAll(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			entries := map[string][]byte{
				"fp:playlist-1": []byte("a"),
				"fp:playlist-2": []byte("b"),
				"fp:playlist-3": []byte("c"),
			}
			if err := s.SetAll(ctx, entries); err != nil {
				t.Fatalf("SetAll: %v", err)
			}

			for key, want := range entries {
				got, ok, err := s.Get(ctx, key)
				if err != nil || !ok || !bytes.Equal(got, want) {
					t.Errorf("Get(%q) = %q ok=%v err=%v, want %q", key, got, ok, err, want)
				}
			}

			if err := s.SetAll(ctx, nil); err != nil {
				t.Errorf("SetAll(nil): %v", err)
			}
		})
	}
}

func TestGetRecordRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	want := sampleRecord{DayKey: "2025-01-10", SelectedIDs: []string{"a1", "a2"}}
	if err := PutRecord(ctx, s, "shelf:top-picks", want); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}

	got, ok, err := GetRecord[sampleRecord](ctx, s, "shelf:top-picks")
	if err != nil || !ok {
		t.Fatalf("GetRecord = ok=%v err=%v", ok, err)
	}
	if got.DayKey != want.DayKey || len(got.SelectedIDs) != 2 {
		t.Errorf("GetRecord = %+v, want %+v", got, want)
	}
}

func TestGetRecordMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := GetRecord[sampleRecord](ctx, s, "nope")
	if err != nil || ok {
		t.Errorf("GetRecord(missing) = ok=%v err=%v, want absent without error", ok, err)
	}
}

func TestGetRecordDecodeFailure(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Set(ctx, "shelf:corrupt", []byte("{not json")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	_, ok, err := GetRecord[sampleRecord](ctx, s, "shelf:corrupt")
	if ok {
		t.Error("corrupt record reported as present")
	}
	if !errors.Is(err, ErrDecodeFailure) {
		t.Errorf("error = %v, want ErrDecodeFailure", err)
	}
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenBadger(dir, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, "shelf:genre", []byte("rock")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenBadger(dir, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, ok, err := reopened.Get(ctx, "shelf:genre")
	if err != nil || !ok || !bytes.Equal(got, []byte("rock")) {
		t.Errorf("Get after reopen = %q ok=%v err=%v, want rock", got, ok, err)
	}
}
