package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/grouping"
	"github.com/Veraticus/shot-grouper/internal/inference"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/pattern"
	"github.com/Veraticus/shot-grouper/internal/synthesis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samples = []string{
	"cap_AA1_front.jpg",
	"cap_BB2_rear.jpg",
	"cap_CC3_front.jpg",
	"cap_DD4_rear.jpg",
}

func analyze(t *testing.T, files []string) *model.TokenAnalysis {
	t.Helper()
	analysis, err := inference.NewAnalyzer(inference.DefaultConfig(), nil).Analyze(context.Background(), files)
	require.NoError(t, err)
	return analysis
}

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s := New(grouping.NewValidator(pattern.NewEngine()), opts)
	t.Cleanup(s.Close)
	return s
}

func TestSession_LoadAnalysisSelectsGroupToken(t *testing.T) {
	s := newSession(t, Options{DebounceWindow: time.Hour})
	require.NoError(t, s.LoadAnalysis(analyze(t, samples)))

	assert.Equal(t, "cap_AA1_front.jpg", s.Reference())
	assert.Equal(t, samples, s.Samples())

	cfg := s.Configuration()
	require.NotNil(t, cfg.GroupToken)
	assert.Equal(t, 1, cfg.GroupToken.Position)
	assert.Equal(t, "AA1", cfg.GroupToken.Value)
	assert.NotEmpty(t, cfg.GroupPattern)
}

func TestSession_LoadAnalysisErrors(t *testing.T) {
	s := newSession(t, Options{})

	assert.True(t, errors.Is(s.LoadAnalysis(nil), common.ErrInvalidArgument))
	assert.True(t, errors.Is(s.LoadAnalysis(&model.TokenAnalysis{}), common.ErrInvalidArgument))
}

func TestSession_Edits(t *testing.T) {
	s := newSession(t, Options{DebounceWindow: time.Hour})
	require.NoError(t, s.LoadAnalysis(analyze(t, samples)))

	require.NoError(t, s.AddRule(model.RoleRule{Role: model.RoleFront, Type: model.RuleContains, Value: "front"}))
	require.NoError(t, s.AddRule(model.RoleRule{Role: model.RoleRear, Type: model.RuleContains, Value: "rear"}))
	require.NoError(t, s.AddRule(model.RoleRule{Role: model.RoleOverview, Type: model.RuleContains, Value: "ov"}))

	cfg := s.Configuration()
	assert.Len(t, cfg.Rules, 3)
	assert.Equal(t, `(?i).*front.*`, cfg.RolePattern(model.RoleFront))
	assert.Equal(t, `(?i).*ov.*`, cfg.RolePattern(model.RoleOverview))

	require.NoError(t, s.RemoveRule(2))
	assert.Len(t, s.Rules(), 2)
	assert.Empty(t, s.Configuration().RolePattern(model.RoleOverview))

	err := s.RemoveRule(5)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.Len(t, s.Rules(), 2)

	err = s.AddRule(model.RoleRule{Role: "side", Type: model.RuleContains, Value: "x"})
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
}

func TestSession_SelectGroupToken(t *testing.T) {
	s := newSession(t, Options{DebounceWindow: time.Hour})
	require.NoError(t, s.LoadAnalysis(analyze(t, samples)))
	before := s.Configuration().GroupPattern

	err := s.SelectGroupToken(9)
	assert.True(t, errors.Is(err, common.ErrInvalidGroupToken))
	assert.Equal(t, before, s.Configuration().GroupPattern, "failed edit leaves configuration unchanged")

	require.NoError(t, s.SelectGroupToken(0))
	cfg := s.Configuration()
	assert.Equal(t, "cap", cfg.GroupToken.Value)
	assert.NotEqual(t, before, cfg.GroupPattern)
}

func TestSession_SetReference(t *testing.T) {
	s := newSession(t, Options{DebounceWindow: time.Hour})
	require.NoError(t, s.LoadAnalysis(analyze(t, samples)))

	require.NoError(t, s.SetReference("cap_BB2_rear.jpg"))
	assert.Equal(t, "cap_BB2_rear.jpg", s.Reference())
	assert.Nil(t, s.Configuration().GroupToken)
	assert.Equal(t, "rear", s.Tokens()[2].Value)

	err := s.SetReference("missing.jpg")
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.Equal(t, "cap_BB2_rear.jpg", s.Reference())
}

func TestSession_ReclassifyToken(t *testing.T) {
	s := newSession(t, Options{DebounceWindow: time.Hour})
	require.NoError(t, s.LoadAnalysis(analyze(t, samples)))

	require.NoError(t, s.ReclassifyToken(0, model.TokenGroupID))
	tok := s.Tokens()[0]
	assert.Equal(t, model.TokenGroupID, tok.SuggestedType)
	assert.InDelta(t, model.ManualConfidence, tok.Confidence, 1e-9)

	require.NoError(t, s.SetReference("cap_BB2_rear.jpg"))
	assert.NotEqual(t, model.TokenGroupID, s.Tokens()[0].SuggestedType, "overrides are per filename")

	assert.True(t, errors.Is(s.ReclassifyToken(0, "bogus"), common.ErrInvalidArgument))
	assert.True(t, errors.Is(s.ReclassifyToken(42, model.TokenDate), common.ErrInvalidArgument))
}

func TestSession_FlexibleExtension(t *testing.T) {
	s := newSession(t, Options{DebounceWindow: time.Hour})
	require.NoError(t, s.LoadAnalysis(analyze(t, samples)))

	s.SetFlexibleExtension(true)
	assert.Contains(t, s.Configuration().GroupPattern, synthesis.ExtensionGroup)
	assert.True(t, s.Configuration().FlexibleExtension)

	s.SetFlexibleExtension(false)
	assert.NotContains(t, s.Configuration().GroupPattern, synthesis.ExtensionGroup)
}

func TestSession_DebouncedValidation(t *testing.T) {
	var (
		calls atomic.Int32
		mu    sync.Mutex
		last  *model.ValidationResult
	)
	s := newSession(t, Options{
		DebounceWindow: 30 * time.Millisecond,
		OnValidate: func(result *model.ValidationResult, _ *grouping.SampleReport, err error) {
			assert.NoError(t, err)
			mu.Lock()
			last = result
			mu.Unlock()
			calls.Add(1)
		},
	})

	require.NoError(t, s.LoadAnalysis(analyze(t, samples)))
	require.NoError(t, s.AddRule(model.RoleRule{Role: model.RoleFront, Type: model.RuleContains, Value: "front"}))
	require.NoError(t, s.AddRule(model.RoleRule{Role: model.RoleRear, Type: model.RuleContains, Value: "rear"}))

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "burst of edits validates once")

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, last)
	assert.True(t, last.Valid())
	assert.True(t, last.HasIssue(model.IssueIncompleteGroups))
}

func TestSession_ValidateNow(t *testing.T) {
	var calls atomic.Int32
	s := newSession(t, Options{
		DebounceWindow: 20 * time.Millisecond,
		OnValidate: func(*model.ValidationResult, *grouping.SampleReport, error) {
			calls.Add(1)
		},
	})

	require.NoError(t, s.LoadAnalysis(analyze(t, samples)))
	require.NoError(t, s.AddRule(model.RoleRule{Role: model.RoleFront, Type: model.RuleContains, Value: "front"}))
	require.NoError(t, s.AddRule(model.RoleRule{Role: model.RoleRear, Type: model.RuleContains, Value: "rear"}))

	result, report, err := s.ValidateNow()
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.True(t, result.Valid())
	assert.Equal(t, 4, report.MatchedCount)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load(), "pending debounced run is dropped")
}

func TestSession_ValidateNowWithoutRules(t *testing.T) {
	s := newSession(t, Options{DebounceWindow: time.Hour})
	require.NoError(t, s.LoadAnalysis(analyze(t, samples)))

	result, report, err := s.ValidateNow()
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.False(t, result.Valid())
	assert.True(t, result.HasIssue(model.IssueNoRoleRules))
}
