package state

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sokinpui/docsync/internal/fs"
)

const (
	stateDirName  = ".docsync"
	stateFileName = "state.docsync"
	ObjectsDir    = "objects"

	ActionCreate = "create"
	ActionModify = "modify"

	noHash = "-"
)

// ErrChangedSinceSync is returned when an artifact no longer has the content
// a history entry expects, so reverting or redoing would lose edits.
var ErrChangedSinceSync = errors.New("file changed since it was synced")

// Operation represents a single file write.
type Operation struct {
	Path       string
	Action     string
	BeforeHash string // empty for created files
	AfterHash  string
}

// HistoryEntry represents one complete run of the tool.
type HistoryEntry struct {
	Timestamp  int64
	Operations []Operation
}

// State represents the entire state file.
type State struct {
	History      []HistoryEntry
	CurrentIndex int
}

// Manager handles the lifecycle of the state file and the stored contents.
type Manager struct {
	statePath string
	state     *State
	StateDir  string
}

// findGitRoot finds the root of the git repository.
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// New creates and loads a state manager. State lives in rootDir, or in the
// enclosing git repository (falling back to the working directory) when
// rootDir is empty.
func New(rootDir string) (*Manager, error) {
	if rootDir == "" {
		var err error
		rootDir, err = findGitRoot()
		if err != nil {
			rootDir, err = os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("could not get current working directory: %w", err)
			}
		}
	}

	stateDir := filepath.Join(rootDir, stateDirName)
	m := &Manager{
		statePath: filepath.Join(stateDir, stateFileName),
		StateDir:  stateDir,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load() error {
	m.state = &State{CurrentIndex: -1}

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not read state file: %w", err)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	blocks := strings.Split(content, "\n\n")
	if len(blocks) == 0 || strings.TrimSpace(blocks[0]) == "" {
		return nil
	}

	// First block is current index
	index, err := strconv.Atoi(strings.TrimSpace(blocks[0]))
	if err != nil {
		return fmt.Errorf("invalid state file: could not parse current index: %w", err)
	}
	m.state.CurrentIndex = index

	for _, block := range blocks[1:] {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")

		ts, err := strconv.ParseInt(lines[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid state file: could not parse timestamp from '%s': %w", lines[0], err)
		}

		entry := HistoryEntry{Timestamp: ts}
		opLines := lines[1:]
		if len(opLines)%4 != 0 {
			return fmt.Errorf("invalid state file: incomplete operation record")
		}
		for i := 0; i < len(opLines); i += 4 {
			op := Operation{
				Action:     opLines[i],
				Path:       opLines[i+1],
				BeforeHash: opLines[i+2],
				AfterHash:  opLines[i+3],
			}
			if op.BeforeHash == noHash {
				op.BeforeHash = ""
			}
			entry.Operations = append(entry.Operations, op)
		}
		m.state.History = append(m.state.History, entry)
	}

	if m.state.CurrentIndex >= len(m.state.History) {
		return fmt.Errorf("invalid state file: current index %d out of range", m.state.CurrentIndex)
	}
	return nil
}

func (m *Manager) save() error {
	var blocks []string
	blocks = append(blocks, strconv.Itoa(m.state.CurrentIndex))

	for _, entry := range m.state.History {
		lines := []string{strconv.FormatInt(entry.Timestamp, 10)}
		for _, op := range entry.Operations {
			before := op.BeforeHash
			if before == "" {
				before = noHash
			}
			lines = append(lines, op.Action, op.Path, before, op.AfterHash)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	if err := os.MkdirAll(m.StateDir, 0755); err != nil {
		return fmt.Errorf("could not create state directory: %w", err)
	}
	if err := fs.WriteDocument(m.statePath, strings.Join(blocks, "\n\n")+"\n"); err != nil {
		return fmt.Errorf("could not save state: %w", err)
	}
	return nil
}

// Record stores the contents of a write and returns the operation
// describing it. before is nil when the file did not exist.
func (m *Manager) Record(path string, before *string, after string) (Operation, error) {
	op := Operation{Path: path, Action: ActionCreate}
	if before != nil {
		op.Action = ActionModify
		hash, err := m.storeObject(*before)
		if err != nil {
			return Operation{}, err
		}
		op.BeforeHash = hash
	}
	hash, err := m.storeObject(after)
	if err != nil {
		return Operation{}, err
	}
	op.AfterHash = hash
	return op, nil
}

func (m *Manager) storeObject(content string) (string, error) {
	hash := fs.SHA256(content)
	path := m.objectPath(hash)
	if fs.Exists(path) {
		return hash, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("could not create objects directory: %w", err)
	}
	if err := fs.WriteDocument(path, content); err != nil {
		return "", err
	}
	return hash, nil
}

func (m *Manager) objectPath(hash string) string {
	return filepath.Join(m.StateDir, ObjectsDir, hash)
}

// Write adds a new set of operations to the history, dropping any entries
// that were reverted and not redone.
func (m *Manager) Write(operations []Operation) error {
	if len(operations) == 0 {
		return nil
	}
	if m.state.CurrentIndex < len(m.state.History)-1 {
		m.state.History = m.state.History[:m.state.CurrentIndex+1]
	}

	m.state.History = append(m.state.History, HistoryEntry{
		Timestamp:  time.Now().UTC().Unix(),
		Operations: operations,
	})
	m.state.CurrentIndex++
	return m.save()
}

// GetOperationsToRevert returns the operations of the current history entry.
// The history pointer only moves once CommitRevert is called.
func (m *Manager) GetOperationsToRevert() []Operation {
	if m.state.CurrentIndex < 0 {
		return nil
	}
	return m.state.History[m.state.CurrentIndex].Operations
}

// CommitRevert moves the history pointer back past the reverted entry.
func (m *Manager) CommitRevert() error {
	if m.state.CurrentIndex < 0 {
		return nil
	}
	m.state.CurrentIndex--
	return m.save()
}

// GetOperationsToRedo returns the operations of the next history entry.
// The history pointer only moves once CommitRedo is called.
func (m *Manager) GetOperationsToRedo() []Operation {
	nextIndex := m.state.CurrentIndex + 1
	if nextIndex >= len(m.state.History) {
		return nil
	}
	return m.state.History[nextIndex].Operations
}

// CommitRedo moves the history pointer forward onto the redone entry.
func (m *Manager) CommitRedo() error {
	if m.state.CurrentIndex+1 >= len(m.state.History) {
		return nil
	}
	m.state.CurrentIndex++
	return m.save()
}

// CheckRevert reports whether op can be reverted without losing edits.
func (m *Manager) CheckRevert(op Operation) error {
	return m.expect(op.Path, op.AfterHash)
}

// CheckRedo reports whether op can be redone without losing edits.
func (m *Manager) CheckRedo(op Operation) error {
	return m.expect(op.Path, op.BeforeHash)
}

// Revert restores the content op.Path had before op.
func (m *Manager) Revert(op Operation) error {
	if err := m.CheckRevert(op); err != nil {
		return err
	}
	if op.Action == ActionCreate {
		if err := os.Remove(op.Path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", op.Path, err)
		}
		return nil
	}
	return m.restore(op.Path, op.BeforeHash)
}

// Redo applies op again.
func (m *Manager) Redo(op Operation) error {
	if err := m.CheckRedo(op); err != nil {
		return err
	}
	return m.restore(op.Path, op.AfterHash)
}

// expect checks that path currently hashes to hash; an empty hash means the
// file must not exist.
func (m *Manager) expect(path, hash string) error {
	current, err := fs.GetFileSHA256(path)
	if hash == "" {
		if err == nil {
			return fmt.Errorf("%s: %w", path, ErrChangedSinceSync)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}
	if current != hash {
		return fmt.Errorf("%s: %w", path, ErrChangedSinceSync)
	}
	return nil
}

func (m *Manager) restore(path, hash string) error {
	content, err := os.ReadFile(m.objectPath(hash))
	if err != nil {
		return fmt.Errorf("missing stored content for %s: %w", path, err)
	}
	return fs.WriteDocument(path, string(content))
}
