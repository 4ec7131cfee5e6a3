package core

import (
	"math"
	"testing"
)

func TestTxOverlayNotVisibleBeforeCommit(t *testing.T) {
	store := NewStore()
	tx := store.Begin()
	key := []byte("k")
	tx.Write(key, []byte("v"))
	if _, ok := store.read(key); ok {
		t.Fatal("an uncommitted write must not be visible on the backing store")
	}
	if v, ok := tx.Read(key); !ok || string(v) != "v" {
		t.Fatal("a staged write must be visible through the same Tx")
	}
	tx.Commit()
	if v, ok := store.read(key); !ok || string(v) != "v" {
		t.Fatal("a committed write must be visible on the backing store")
	}
}

func TestTxRollbackIsNoop(t *testing.T) {
	store := NewStore()
	tx := store.Begin()
	key := []byte("k")
	tx.Write(key, []byte("v"))
	tx.Rollback()
	if _, ok := store.read(key); ok {
		t.Fatal("Rollback must never affect the backing store; discarding the Tx is what matters")
	}
}

func TestTxDeleteTombstonesOverlayAndBase(t *testing.T) {
	store := NewStore()
	key := []byte("k")
	tx0 := store.Begin()
	tx0.Write(key, []byte("v"))
	tx0.Commit()

	tx := store.Begin()
	tx.Delete(key)
	if _, ok := tx.Read(key); ok {
		t.Fatal("a tombstoned key must not be readable within the same Tx")
	}
	tx.Commit()
	if _, ok := store.read(key); ok {
		t.Fatal("a committed delete must remove the key from the backing store")
	}
}

func TestTxNextIdMonotonicAcrossCommits(t *testing.T) {
	store := NewStore()
	tx1 := store.Begin()
	first, err := tx1.nextId("client")
	if err != nil {
		t.Fatalf("nextId: %v", err)
	}
	tx1.Commit()

	tx2 := store.Begin()
	second, err := tx2.nextId("client")
	if err != nil {
		t.Fatalf("nextId: %v", err)
	}
	tx2.Commit()

	if second != first+1 {
		t.Fatalf("ids must be dense and monotonic: got %d then %d", first, second)
	}
}

func TestTxNextIdNotConsumedByDiscardedTx(t *testing.T) {
	store := NewStore()
	tx1 := store.Begin()
	if _, err := tx1.nextId("client"); err != nil { // never committed
		t.Fatalf("nextId: %v", err)
	}
	tx1.Rollback()

	tx2 := store.Begin()
	got, err := tx2.nextId("client")
	if err != nil {
		t.Fatalf("nextId: %v", err)
	}
	tx2.Commit()

	if got != 1 {
		t.Fatalf("an id consumed by an uncommitted Tx must not be burned: got %d want 1", got)
	}
}

func TestTxNextIdOverflow(t *testing.T) {
	store := NewStore()
	tx := store.Begin()
	tx.counterBase["client"] = math.MaxUint32
	if _, err := tx.nextId("client"); err != ErrMathOverflow {
		t.Fatalf("got err %v, want ErrMathOverflow", err)
	}
}

func TestCommitmentRoundTripViaStore(t *testing.T) {
	store := NewStore()
	path := []byte("p")
	c := keccak256([]byte("value"))
	tx := store.Begin()
	tx.WriteCommitment(path, c)
	tx.Commit()
	if got := store.ReadCommitment(path); got != c {
		t.Fatalf("got %s want %s", got, c)
	}
	if got := store.ReadCommitment([]byte("missing")); !got.IsZero() {
		t.Fatal("an unwritten path must read back as the zero/absent sentinel")
	}
}
