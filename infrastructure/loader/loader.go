// Package loader reads a knowledge base from a directory of YAML
// files: spaces under spaces/, object types under objects/, and one
// action per file under actions/.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NickG503/World-Simulator/domain/kb"
	"github.com/NickG503/World-Simulator/infrastructure/logging"
)

// Errors returned by the loader.
var (
	ErrInvalidDefinition = errors.New("loader: invalid definition")
	ErrDuplicate         = errors.New("loader: duplicate definition")
)

// Loader reads knowledge base directories.
type Loader struct {
	strict   bool
	validate bool
}

// Option configures the loader.
type Option func(*Loader)

// WithStrictFields rejects unknown YAML fields.
func WithStrictFields() Option {
	return func(l *Loader) {
		l.strict = true
	}
}

// WithoutValidation skips the referential integrity pass after loading.
func WithoutValidation() Option {
	return func(l *Loader) {
		l.validate = false
	}
}

// New creates a loader.
func New(opts ...Option) *Loader {
	l := &Loader{validate: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every definition under dir and returns the assembled
// knowledge base. Missing subdirectories are not errors; a knowledge
// base can be spaces-only.
func (l *Loader) Load(dir string) (*kb.KnowledgeBase, error) {
	k := kb.New()

	if err := l.loadDir(filepath.Join(dir, "spaces"), k, l.loadSpaceFile); err != nil {
		return nil, err
	}
	if err := l.loadDir(filepath.Join(dir, "objects"), k, l.loadObjectFile); err != nil {
		return nil, err
	}
	if err := l.loadDir(filepath.Join(dir, "actions"), k, l.loadActionFile); err != nil {
		return nil, err
	}

	if l.validate {
		if errs := k.Validate(); len(errs) > 0 {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, errors.Join(errs...))
		}
	}

	logging.Debug().
		Add(logging.Component("loader")).
		Add(logging.Path(dir)).
		Add(logging.Str("spaces", fmt.Sprint(len(k.Spaces)))).
		Add(logging.Str("objects", fmt.Sprint(len(k.Objects)))).
		Add(logging.Str("actions", fmt.Sprint(len(k.Actions)))).
		Msg("knowledge base loaded")

	return k, nil
}

// loadDir applies fn to every YAML file under dir, in sorted order.
func (l *Loader) loadDir(dir string, k *kb.KnowledgeBase, fn func(path string, doc *yaml.Node, k *kb.KnowledgeBase) error) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loader: walk %s: %w", dir, err)
	}
	sort.Strings(files)

	for _, path := range files {
		doc, err := l.readFile(path)
		if err != nil {
			return err
		}
		if doc == nil {
			continue
		}
		if err := fn(path, doc, k); err != nil {
			return err
		}
	}
	return nil
}

// readFile parses a YAML file into its root document node. Empty files
// yield nil.
func (l *Loader) readFile(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

// decode unmarshals a node into out, honoring the strict field option.
func (l *Loader) decode(path string, n *yaml.Node, out any) error {
	if err := decodeNode(n, out, l.strict); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, err)
	}
	return nil
}
