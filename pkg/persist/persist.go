package persist

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/chrismichaelps/effuse-sub003/internal/errors"
	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
)

// bucketSnapshots holds one JSON entry per persist key.
const bucketSnapshots = "snapshots"

// Persistable is anything with a stable persistence key whose value
// survives a JSON round trip.
type Persistable interface {
	// PersistKey returns the stable key the value is stored under.
	PersistKey() string

	// GetAny returns the current value. Reading it inside a tracking
	// frame subscribes, which is what AutoSave relies on.
	GetAny() any

	// SetAny restores a previously saved value. Returns an error if the
	// value cannot be converted to the underlying type.
	SetAny(value any) error
}

// Var wraps a signal with a persistence key. It satisfies Persistable.
type Var[T any] struct {
	key string
	sig *effuse.Signal[T]
}

// NewVar creates a persistable signal holding initial under key.
func NewVar[T any](key string, initial T) *Var[T] {
	return &Var[T]{
		key: key,
		sig: effuse.NewSignal(initial),
	}
}

// WrapVar attaches a persistence key to an existing signal.
func WrapVar[T any](key string, sig *effuse.Signal[T]) *Var[T] {
	return &Var[T]{key: key, sig: sig}
}

// PersistKey implements Persistable.
func (v *Var[T]) PersistKey() string { return v.key }

// Signal returns the underlying signal.
func (v *Var[T]) Signal() *effuse.Signal[T] { return v.sig }

// Get returns the current value, tracking it as a dependency.
func (v *Var[T]) Get() T { return v.sig.Get() }

// Set commits a new value.
func (v *Var[T]) Set(val T) { v.sig.Set(val) }

// GetAny implements Persistable.
func (v *Var[T]) GetAny() any { return v.sig.Get() }

// SetAny implements Persistable. Values decoded from JSON arrive as
// generic types (float64, map[string]any), so a direct assertion is
// tried first and a JSON re-decode into T second.
func (v *Var[T]) SetAny(value any) error {
	if t, ok := value.(T); ok {
		v.sig.Set(t)
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("persist: key %q: %w", v.key, err)
	}
	var t T
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("persist: key %q: cannot restore %T: %w", v.key, value, err)
	}
	v.sig.Set(t)
	return nil
}

// Store persists snapshots in a bbolt database.
type Store struct {
	db     *bolt.DB
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger AutoSave reports failures to.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// Open opens (or creates) the database at path.
func Open(path string, opts ...StoreOption) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.New("E080").WithDetail("open %s", path).Wrap(err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshots))
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.New("E080").WithDetail("init %s", path).Wrap(err)
	}
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save snapshots the current value of every given persistable in one
// transaction.
func (s *Store) Save(vars ...Persistable) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		for _, p := range vars {
			var value any
			effuse.Untracked(func() { value = p.GetAny() })
			data, err := json.Marshal(value)
			if err != nil {
				return errors.New("E080").WithDetail("key %q", p.PersistKey()).Wrap(err)
			}
			if err := b.Put([]byte(p.PersistKey()), data); err != nil {
				return errors.New("E080").WithDetail("key %q", p.PersistKey()).Wrap(err)
			}
		}
		return nil
	})
}

// Load restores each persistable from its snapshot. Keys with no
// snapshot are left untouched.
func (s *Store) Load(vars ...Persistable) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		for _, p := range vars {
			data := b.Get([]byte(p.PersistKey()))
			if data == nil {
				continue
			}
			var value any
			if err := json.Unmarshal(data, &value); err != nil {
				return errors.New("E081").WithDetail("key %q", p.PersistKey()).Wrap(err)
			}
			if err := p.SetAny(value); err != nil {
				return errors.New("E081").WithDetail("key %q", p.PersistKey()).Wrap(err)
			}
		}
		return nil
	})
}

// Delete removes the snapshot for key, if present.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).Delete([]byte(key))
	})
}

// Keys lists all snapshot keys in the store.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// AutoSave re-saves each persistable whenever its value changes. The
// returned stop function tears down the watchers. Save failures are
// logged, not propagated; the reactive graph must not stall on disk
// errors.
func (s *Store) AutoSave(vars ...Persistable) func() {
	owner := effuse.NewOwner(nil)
	effuse.WithOwner(owner, func() {
		for _, p := range vars {
			p := p
			first := true
			effuse.CreateEffect(func() effuse.Cleanup {
				_ = p.GetAny()
				if first {
					first = false
					return nil
				}
				if err := s.Save(p); err != nil {
					s.logger.Warn("autosave failed",
						"key", p.PersistKey(),
						"error", err)
				}
				return nil
			}, effuse.EffectName("autosave:"+p.PersistKey()))
		}
	})
	return owner.Dispose
}
