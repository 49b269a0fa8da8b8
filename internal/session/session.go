// Package session holds the editable state of one grouping configuration and keeps its
// patterns and validation current as it is edited.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/grouping"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/worker"
)

// DefaultDebounceWindow is how long edits must pause before validation runs.
const DefaultDebounceWindow = 300 * time.Millisecond

// ValidationFunc receives the outcome of a debounced validation run. report is nil when
// sample validation did not run.
type ValidationFunc func(result *model.ValidationResult, report *grouping.SampleReport, err error)

// Options configure a Session.
type Options struct {
	OnValidate        ValidationFunc
	DebounceWindow    time.Duration
	FlexibleExtension bool
}

// tokenKey identifies a token of one filename. Manual type overrides are stored against
// it rather than on shared token values.
type tokenKey struct {
	filename string
	position int
}

// Session is safe for concurrent use.
type Session struct {
	validator  *grouping.Validator
	debouncer  *worker.Debouncer
	onValidate ValidationFunc
	analysis   *model.TokenAnalysis
	config     *model.PatternConfiguration
	overrides  map[tokenKey]model.TokenType
	groupPos   *int
	reference  string
	samples    []string
	rules      []model.RoleRule
	mu         sync.Mutex
	flexible   bool
}

// New creates an empty session.
func New(validator *grouping.Validator, opts Options) *Session {
	window := opts.DebounceWindow
	if window <= 0 {
		window = DefaultDebounceWindow
	}

	s := &Session{
		validator:  validator,
		onValidate: opts.OnValidate,
		overrides:  make(map[tokenKey]model.TokenType),
		rules:      []model.RoleRule{},
		flexible:   opts.FlexibleExtension,
		config:     model.NewPatternConfiguration(),
	}
	s.debouncer = worker.NewDebouncer(window, s.runValidation)
	return s
}

// Close stops pending validation.
func (s *Session) Close() {
	s.debouncer.Stop()
}

// LoadAnalysis replaces the sample set. The first filename becomes the reference whose
// tokens define the group pattern, and the best group-id suggestion, if any, is selected.
func (s *Session) LoadAnalysis(analysis *model.TokenAnalysis) error {
	if analysis == nil || len(analysis.Filenames) == 0 {
		return fmt.Errorf("%w: analysis has no filenames", common.ErrInvalidArgument)
	}

	s.mu.Lock()
	s.analysis = analysis
	s.samples = append([]string(nil), analysis.Filenames...)
	s.reference = analysis.Filenames[0]
	s.overrides = make(map[tokenKey]model.TokenType)
	s.groupPos = nil
	if best, ok := analysis.BestSuggestion(model.TokenGroupID); ok {
		if _, ok := s.tokenAtLocked(best.Position); ok {
			pos := best.Position
			s.groupPos = &pos
		}
	}
	err := s.rebuildLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.debouncer.Trigger()
	return nil
}

// SetReference chooses which sample's tokens define the group pattern.
func (s *Session) SetReference(filename string) error {
	return s.edit(func() error {
		if s.analysis == nil {
			return fmt.Errorf("%w: no analysis loaded", common.ErrInvalidArgument)
		}
		if _, ok := s.analysis.TokenizedFiles[filename]; !ok {
			return fmt.Errorf("%w: %q is not a sample", common.ErrNotFound, filename)
		}
		s.reference = filename
		s.groupPos = nil
		return nil
	})
}

// Reference returns the reference filename.
func (s *Session) Reference() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reference
}

// Samples returns the sample filenames.
func (s *Session) Samples() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.samples...)
}

// Tokens returns the reference tokens with manual overrides applied.
func (s *Session) Tokens() []model.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokensLocked()
}

func (s *Session) tokensLocked() []model.Token {
	if s.analysis == nil {
		return nil
	}
	tokens, _ := s.analysis.TokensFor(s.reference)
	for i, tok := range tokens {
		if t, ok := s.overrides[tokenKey{filename: s.reference, position: tok.Position}]; ok {
			tokens[i] = tok.Reclassify(t)
		}
	}
	return tokens
}

// SelectGroupToken marks the reference token at position as the group id.
func (s *Session) SelectGroupToken(position int) error {
	return s.edit(func() error {
		if _, ok := s.tokenAtLocked(position); !ok {
			return fmt.Errorf("%w: no token at position %d", common.ErrInvalidGroupToken, position)
		}
		pos := position
		s.groupPos = &pos
		return nil
	})
}

// ReclassifyToken overrides the inferred type of a reference token.
func (s *Session) ReclassifyToken(position int, tokenType model.TokenType) error {
	if !tokenType.IsValid() {
		return fmt.Errorf("%w: unknown token type %q", common.ErrInvalidArgument, tokenType)
	}
	return s.edit(func() error {
		if _, ok := s.tokenAtLocked(position); !ok {
			return fmt.Errorf("%w: no token at position %d", common.ErrInvalidArgument, position)
		}
		s.overrides[tokenKey{filename: s.reference, position: position}] = tokenType
		return nil
	})
}

// AddRule appends a rule.
func (s *Session) AddRule(rule model.RoleRule) error {
	if !rule.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", common.ErrInvalidArgument, rule.Role)
	}
	if !rule.Type.IsValid() {
		return fmt.Errorf("%w: unknown rule type %q", common.ErrInvalidArgument, rule.Type)
	}
	return s.edit(func() error {
		s.rules = append(s.rules, rule)
		return nil
	})
}

// RemoveRule deletes the rule at index.
func (s *Session) RemoveRule(index int) error {
	return s.edit(func() error {
		if index < 0 || index >= len(s.rules) {
			return fmt.Errorf("%w: no rule at index %d", common.ErrNotFound, index)
		}
		s.rules = append(s.rules[:index], s.rules[index+1:]...)
		return nil
	})
}

// Rules returns a copy of the rules.
func (s *Session) Rules() []model.RoleRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RoleRule(nil), s.rules...)
}

// SetFlexibleExtension toggles extension-agnostic patterns.
func (s *Session) SetFlexibleExtension(enabled bool) {
	_ = s.edit(func() error {
		s.flexible = enabled
		return nil
	})
}

// Configuration returns a copy of the current configuration.
func (s *Session) Configuration() *model.PatternConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Clone()
}

// ValidateNow validates synchronously and drops any pending debounced run.
func (s *Session) ValidateNow() (*model.ValidationResult, *grouping.SampleReport, error) {
	s.debouncer.Cancel()
	return s.validate()
}

// edit applies fn and, when it succeeds, regenerates patterns and schedules validation.
// A failed edit leaves the session unchanged.
func (s *Session) edit(fn func() error) error {
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	if err := fn(); err != nil {
		s.restoreLocked(snapshot)
		s.mu.Unlock()
		return err
	}
	if err := s.rebuildLocked(); err != nil {
		s.restoreLocked(snapshot)
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.debouncer.Trigger()
	return nil
}

type snapshot struct {
	groupPos  *int
	overrides map[tokenKey]model.TokenType
	reference string
	rules     []model.RoleRule
	flexible  bool
}

func (s *Session) snapshotLocked() snapshot {
	overrides := make(map[tokenKey]model.TokenType, len(s.overrides))
	for k, v := range s.overrides {
		overrides[k] = v
	}
	return snapshot{
		groupPos:  s.groupPos,
		overrides: overrides,
		reference: s.reference,
		rules:     append([]model.RoleRule{}, s.rules...),
		flexible:  s.flexible,
	}
}

func (s *Session) restoreLocked(snap snapshot) {
	s.groupPos = snap.groupPos
	s.overrides = snap.overrides
	s.reference = snap.reference
	s.rules = snap.rules
	s.flexible = snap.flexible
}

func (s *Session) tokenAtLocked(position int) (model.Token, bool) {
	for _, tok := range s.tokensLocked() {
		if tok.Position == position {
			return tok, true
		}
	}
	return model.Token{}, false
}

func (s *Session) rebuildLocked() error {
	tokens := s.tokensLocked()

	var group *model.Token
	if s.groupPos != nil {
		tok, ok := s.tokenAtLocked(*s.groupPos)
		if !ok {
			return fmt.Errorf("%w: no token at position %d", common.ErrInvalidGroupToken, *s.groupPos)
		}
		group = &tok
	}

	cfg, err := grouping.BuildConfiguration(tokens, group, s.rules, s.flexible)
	if err != nil {
		return err
	}
	s.config = cfg
	return nil
}

func (s *Session) validate() (*model.ValidationResult, *grouping.SampleReport, error) {
	s.mu.Lock()
	cfg := s.config.Clone()
	samples := append([]string(nil), s.samples...)
	s.mu.Unlock()

	return s.validator.ValidateConfiguration(cfg, samples)
}

// runValidation is the debounced callback.
func (s *Session) runValidation() {
	result, report, err := s.validate()
	if err != nil {
		common.LogError(err, "validation failed", nil)
	}
	if s.onValidate != nil {
		s.onValidate(result, report, err)
	}
}
