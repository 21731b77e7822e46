package dashboard

import (
	"errors"
	"testing"

	"student-predictor/internal/features"
	"student-predictor/internal/ml"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		in   string
		want Page
		ok   bool
	}{
		{"", PageHome, true},
		{"home", PageHome, true},
		{"Data", PageData, true},
		{" graphs ", PageGraphs, true},
		{"predict", PagePredict, true},
		{"settings", PageHome, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePage(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPage_String(t *testing.T) {
	for _, p := range Pages() {
		back, ok := ParsePage(p.String())
		assert.True(t, ok)
		assert.Equal(t, p, back)
	}
	assert.Equal(t, "page(9)", Page(9).String())
	assert.False(t, Page(-1).Valid())
}

func TestReduce_Navigate(t *testing.T) {
	s := NewState()
	assert.Equal(t, PageHome, s.Page)

	s, eff := Reduce(s, Navigate(PageGraphs))
	assert.Equal(t, EffectNone, eff)
	assert.Equal(t, PageGraphs, s.Page)

	before := s
	s, eff = Reduce(s, Navigate(Page(42)))
	assert.Equal(t, EffectReject, eff)
	assert.Equal(t, before, s, "invalid navigation leaves the state unchanged")
}

func TestReduce_NavigateAwayClearsResult(t *testing.T) {
	s := NewState()
	s.Page = PagePredict
	s.Result = &ml.Prediction{ID: "x"}

	same, _ := Reduce(s, Navigate(PagePredict))
	assert.NotNil(t, same.Result)

	away, _ := Reduce(s, Navigate(PageData))
	assert.Nil(t, away.Result)
}

func TestReduce_Select(t *testing.T) {
	s := NewState()
	s.Result = &ml.Prediction{ID: "x"}

	s, eff := Reduce(s, Select(features.RaceEthnicity, "group D"))
	assert.Equal(t, EffectNone, eff)
	assert.Equal(t, "group D", s.Profile.RaceEthnicity)
	assert.Nil(t, s.Result, "a changed selection invalidates the result")

	before := s
	s, eff = Reduce(s, Select(features.Lunch, "packed"))
	assert.Equal(t, EffectReject, eff)
	assert.Equal(t, before, s)
}

func TestReduce_Predict(t *testing.T) {
	s := NewState()
	s.Err = "old"

	s, eff := Reduce(s, Predict())
	assert.Equal(t, EffectPredict, eff)
	assert.Equal(t, PagePredict, s.Page)
	assert.Empty(t, s.Err)
}

func TestReduce_IsPure(t *testing.T) {
	s := NewState()
	orig := s
	_, _ = Reduce(s, Select(features.Gender, "female"))
	assert.Equal(t, orig, s)
}

func TestState_WithResult(t *testing.T) {
	s, _ := Reduce(NewState(), Predict())

	ok := s.WithResult(&ml.Prediction{ID: "p1"}, nil)
	assert.Equal(t, "p1", ok.Result.ID)
	assert.Empty(t, ok.Err)

	failed := ok.WithResult(nil, errors.New("backend down"))
	assert.Nil(t, failed.Result)
	assert.Equal(t, "backend down", failed.Err)
}
