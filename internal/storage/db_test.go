package storage

import (
	"bytes"
	"errors"
	"testing"
)

// testDB runs the shared suite against a DB implementation.
func testDB(t *testing.T, db DB) {
	t.Helper()

	t.Run("PutGet", func(t *testing.T) {
		if err := db.Put([]byte("tx/1"), []byte("first")); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		val, err := db.Get([]byte("tx/1"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("first")) {
			t.Errorf("Get() = %q, want %q", val, "first")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := db.Get([]byte("missing"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
		ok, err := db.Has([]byte("missing"))
		if err != nil || ok {
			t.Errorf("Has() = %v, %v", ok, err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		db.Put([]byte("ow"), []byte("a"))
		db.Put([]byte("ow"), []byte("b"))
		val, _ := db.Get([]byte("ow"))
		if string(val) != "b" {
			t.Errorf("Get() after overwrite = %q", val)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db.Put([]byte("del"), []byte("v"))
		if err := db.Delete([]byte("del")); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if ok, _ := db.Has([]byte("del")); ok {
			t.Error("key should be gone after Delete()")
		}
		if err := db.Delete([]byte("never-existed")); err != nil {
			t.Errorf("Delete() missing key error: %v", err)
		}
	})

	t.Run("ValueIsCopied", func(t *testing.T) {
		v := []byte("orig")
		db.Put([]byte("copy"), v)
		v[0] = 'X'
		got, _ := db.Get([]byte("copy"))
		if string(got) != "orig" {
			t.Errorf("stored value changed to %q", got)
		}
	})

	t.Run("ForEachOrdered", func(t *testing.T) {
		for _, k := range []string{"j/03", "j/01", "j/02", "k/01"} {
			db.Put([]byte(k), []byte(k))
		}
		var got []string
		err := db.ForEach([]byte("j/"), func(key, value []byte) error {
			got = append(got, string(key))
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach() error: %v", err)
		}
		want := []string{"j/01", "j/02", "j/03"}
		if len(got) != len(want) {
			t.Fatalf("ForEach() keys = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("key[%d] = %s, want %s", i, got[i], want[i])
			}
		}
	})

	t.Run("Batch", func(t *testing.T) {
		db.Put([]byte("b/old"), []byte("x"))
		err := db.Batch(func(w Writer) error {
			if err := w.Put([]byte("b/entry"), []byte("e")); err != nil {
				return err
			}
			if err := w.Put([]byte("b/index"), []byte("i")); err != nil {
				return err
			}
			return w.Delete([]byte("b/old"))
		})
		if err != nil {
			t.Fatalf("Batch() error: %v", err)
		}
		for _, k := range []string{"b/entry", "b/index"} {
			if ok, _ := db.Has([]byte(k)); !ok {
				t.Errorf("%s missing after Batch()", k)
			}
		}
		if ok, _ := db.Has([]byte("b/old")); ok {
			t.Error("b/old should be deleted by Batch()")
		}
	})

	t.Run("BatchRollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.Batch(func(w Writer) error {
			w.Put([]byte("rb/1"), []byte("v"))
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Batch() error = %v, want boom", err)
		}
		if ok, _ := db.Has([]byte("rb/1")); ok {
			t.Error("failed Batch() left a write behind")
		}
	})

	t.Run("ForEachStop", func(t *testing.T) {
		stop := errors.New("stop")
		n := 0
		err := db.ForEach([]byte("j/"), func(key, value []byte) error {
			n++
			return stop
		})
		if !errors.Is(err, stop) || n != 1 {
			t.Errorf("ForEach() = %v after %d calls", err, n)
		}
	})
}

func TestMemoryDB(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB_Persistence(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	db1.Put([]byte("persist"), []byte("data"))
	db1.Close()

	db2, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() reopen error: %v", err)
	}
	defer db2.Close()

	val, err := db2.Get([]byte("persist"))
	if err != nil {
		t.Fatalf("Get() after reopen error: %v", err)
	}
	if string(val) != "data" {
		t.Errorf("persisted value = %q, want %q", val, "data")
	}
}

func TestBadgerDB_Locked(t *testing.T) {
	dir := t.TempDir()
	db, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()

	if _, err := NewBadger(dir); err == nil {
		t.Error("second NewBadger() on the same dir should fail")
	}
}
