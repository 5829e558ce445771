package bytecode

import (
	"fmt"
	"sync"

	"github.com/tinscript/tinscript/types"
)

// SourceLoader is the sole file-I/O collaborator the core requires, per
// spec.md §1: "platform file I/O (core only requires a
// read_file_to_string(path) -> bytes|err)".
type SourceLoader interface {
	ReadFileToString(path string) ([]byte, error)
}

// CompileFunc compiles source bytes into a Codeblock. The store takes this
// as a parameter rather than importing package compiler directly, so that
// bytecode (a dependency of compiler) never depends back on it -- keeping
// spec.md §2's "leaves first" order intact (Codeblock Store sits below
// Compiler).
type CompileFunc func(fileHash uint32, fileName string, source []byte) (*Codeblock, error)

// Store is the codeblock store described in spec.md §4.3/§4.9: a cache
// from source-path hash to compiled bytecode, recompiled when the source
// checksum changes.
type Store struct {
	mu      sync.RWMutex
	byHash  map[uint32]*Codeblock
	compile CompileFunc
}

// NewStore returns an empty codeblock store using compile to turn source
// bytes into Codeblocks.
func NewStore(compile CompileFunc) *Store {
	return &Store{byHash: make(map[uint32]*Codeblock), compile: compile}
}

// Checksum computes the source checksum used for reload detection (spec.md
// §3 "Codeblock... a source checksum for reload detection"). FNV-1a over
// the raw bytes: cheap, deterministic, and matches the identifier-hash
// function's spirit without claiming cryptographic properties it does not
// need.
func Checksum(source []byte) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	h := uint32(offset32)
	for _, b := range source {
		h ^= uint32(b)
		h *= prime32
	}
	return h
}

// Get returns the currently cached codeblock for fileHash, if any.
func (s *Store) Get(fileHash uint32) (*Codeblock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cb, ok := s.byHash[fileHash]
	return cb, ok
}

// Each calls fn for every cached codeblock, for the debugger's "enumerate
// codeblocks" command.
func (s *Store) Each(fn func(*Codeblock)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cb := range s.byHash {
		fn(cb)
	}
}

// LoadFile reads path via loader, compiling (or reusing the cached
// codeblock if the checksum is unchanged) and registering the result
// keyed by the file's name hash.
func (s *Store) LoadFile(loader SourceLoader, path string) (*Codeblock, error) {
	src, err := loader.ReadFileToString(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s.LoadSource(path, src)
}

// LoadSource compiles (or reuses) source bytes named path.
func (s *Store) LoadSource(path string, source []byte) (*Codeblock, error) {
	fileHash := types.HashName(path)
	checksum := Checksum(source)

	s.mu.RLock()
	if cb, ok := s.byHash[fileHash]; ok && cb.Checksum == checksum {
		s.mu.RUnlock()
		return cb, nil
	}
	s.mu.RUnlock()

	cb, err := s.compile(fileHash, path, source)
	if err != nil {
		// spec.md §7 SyntaxError/CompileError: "no partial codeblock
		// registered" -- do not touch the store on failure.
		return nil, err
	}
	cb.Checksum = checksum

	s.mu.Lock()
	s.byHash[fileHash] = cb
	s.mu.Unlock()
	return cb, nil
}

// Invalidate drops a cached codeblock, forcing recompilation on next load.
func (s *Store) Invalidate(fileHash uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byHash, fileHash)
}
