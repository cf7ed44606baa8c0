// Package file persists conversations as JSON snapshots on the local
// filesystem, with timestamped backups and crash recovery.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/voyago/voyago/pkg/domain"
)

// DefaultBackupRetention is how many backups are kept per conversation.
const DefaultBackupRetention = 5

// Store implements ports.ConversationStore and ports.Recoverable on the
// local filesystem. Snapshots are written atomically (temp file, fsync,
// rename); before every overwrite the previous snapshot is copied into a
// timestamped backup, pruned beyond the retention count.
type Store struct {
	basePath  string
	retention int
	required  []domain.SlotName
	clock     func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithRetention overrides the per-conversation backup retention count.
func WithRetention(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.retention = n
		}
	}
}

// WithRequiredSlots sets the slots used to derive the snapshot's recovery
// point. Defaults to the standard required set.
func WithRequiredSlots(required []domain.SlotName) Option {
	return func(s *Store) { s.required = required }
}

// WithClock injects a clock for deterministic backup names and recovery
// durations in tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// New creates a Store rooted at basePath, defaulting to
// ".voyago/conversations".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".voyago", "conversations")
	}
	s := &Store{
		basePath:  basePath,
		retention: DefaultBackupRetention,
		required:  domain.DefaultRequiredSlots(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// snapshot is the on-disk format: the full state plus the derived
// recovery point, so a reader can classify progress without replaying the
// state machine.
type snapshot struct {
	*domain.State
	RecoveryPoint domain.RecoveryPoint `json:"recoveryPoint"`
}

func (s *Store) mainPath(id string) string {
	return filepath.Join(s.basePath, id+".json")
}

func (s *Store) backupDir() string {
	return filepath.Join(s.basePath, "backups")
}

// Save writes a versioned snapshot atomically, backing up the previous
// one first.
func (s *Store) Save(ctx context.Context, conversationID string, state *domain.State) error {
	if conversationID == "" {
		return fmt.Errorf("conversationID cannot be empty")
	}
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("ensure conversation directory: %w", err)
	}

	dest := s.mainPath(conversationID)
	if _, err := os.Stat(dest); err == nil {
		if err := s.backup(conversationID, dest); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(snapshot{
		State:         state,
		RecoveryPoint: domain.RecoveryPointOf(state, s.required),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	// Temp file in the same directory so the rename stays on one
	// filesystem and is atomic.
	tmp, err := os.CreateTemp(s.basePath, "tmp-"+conversationID+"-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename temp file to snapshot: %w", err)
	}
	return nil
}

// backup copies the current snapshot aside as
// {id}-{ISO8601 with colons replaced}.json and prunes old backups.
func (s *Store) backup(id, mainPath string) error {
	dir := s.backupDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure backup directory: %w", err)
	}

	data, err := os.ReadFile(mainPath)
	if err != nil {
		return fmt.Errorf("read snapshot for backup: %w", err)
	}

	stamp := strings.ReplaceAll(s.clock().UTC().Format("2006-01-02T15:04:05.000Z"), ":", "-")
	name := fmt.Sprintf("%s-%s.json", id, stamp)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return s.prune(id)
}

// backups lists a conversation's backup files, newest first.
func (s *Store) backups(id string) ([]string, error) {
	entries, err := os.ReadDir(s.backupDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	prefix := id + "-"
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	// Timestamps are lexicographically ordered, so a plain sort suffices.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (s *Store) prune(id string) error {
	names, err := s.backups(id)
	if err != nil {
		return fmt.Errorf("list backups for pruning: %w", err)
	}
	for _, name := range names[min(len(names), s.retention):] {
		if err := os.Remove(filepath.Join(s.backupDir(), name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("prune backup %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the main snapshot, falling back to the newest readable
// backup when the main file is corrupt.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.State, error) {
	state, _, err := s.load(conversationID)
	return state, err
}

func (s *Store) load(id string) (*domain.State, string, error) {
	if id == "" {
		return nil, "", fmt.Errorf("conversationID cannot be empty")
	}

	data, err := os.ReadFile(s.mainPath(id))
	switch {
	case os.IsNotExist(err):
		return nil, "", domain.ErrConversationNotFound
	case err != nil:
		return nil, "", fmt.Errorf("read snapshot: %w", err)
	}

	if state, decErr := decode(data); decErr == nil {
		return state, domain.RecoveryActionResumed, nil
	}

	names, err := s.backups(id)
	if err != nil {
		return nil, "", fmt.Errorf("list backups: %w", err)
	}
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(s.backupDir(), name))
		if err != nil {
			continue
		}
		if state, decErr := decode(raw); decErr == nil {
			return state, domain.RecoveryActionRestoredBackup, nil
		}
	}
	return nil, domain.RecoveryActionFailed,
		fmt.Errorf("snapshot for %s is corrupt and no backup is readable", id)
}

func decode(data []byte) (*domain.State, error) {
	snap := snapshot{State: &domain.State{}}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.State.ID == "" {
		return nil, fmt.Errorf("snapshot missing conversation id")
	}
	if snap.State.ProcessedTurns == nil {
		snap.State.ProcessedTurns = make(map[string]string)
	}
	return snap.State, nil
}

// Restore implements ports.Recoverable: Load plus metadata about how the
// state came back and how long the conversation sat idle.
func (s *Store) Restore(ctx context.Context, conversationID string) (*domain.State, domain.RecoveryInfo, error) {
	state, action, err := s.load(conversationID)
	if err != nil {
		info := domain.RecoveryInfo{LastAction: domain.RecoveryActionNone}
		if action == domain.RecoveryActionFailed {
			info.LastAction = domain.RecoveryActionFailed
		}
		return nil, info, err
	}

	info := domain.RecoveryInfo{
		Recovered:     true,
		RecoveryPoint: domain.RecoveryPointOf(state, s.required),
		LastAction:    action,
	}
	if !state.LastUpdated.IsZero() {
		info.MissedDuration = s.clock().Sub(state.LastUpdated)
	}
	return state, info, nil
}

// Delete removes the snapshot and all backups for a conversation.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversationID cannot be empty")
	}
	if err := os.Remove(s.mainPath(conversationID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	names, err := s.backups(conversationID)
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.backupDir(), name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete backup %s: %w", name, err)
		}
	}
	return nil
}

// List returns all conversation IDs with a main snapshot.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if strings.HasPrefix(entry.Name(), "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return ids, nil
}
