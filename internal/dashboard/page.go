package dashboard

import (
	"fmt"
	"strings"

	"student-predictor/internal/features"
	"student-predictor/internal/ml"
)

// Page is one of the dashboard views.
type Page int

const (
	PageHome Page = iota
	PageData
	PageGraphs
	PagePredict
)

var pageNames = []string{"home", "data", "graphs", "predict"}

// Pages lists the views in navigation order.
func Pages() []Page {
	return []Page{PageHome, PageData, PageGraphs, PagePredict}
}

func (p Page) String() string {
	if p < 0 || int(p) >= len(pageNames) {
		return fmt.Sprintf("page(%d)", int(p))
	}
	return pageNames[p]
}

// Valid reports whether p names a known view.
func (p Page) Valid() bool {
	return p >= PageHome && p <= PagePredict
}

// Title is the navigation label.
func (p Page) Title() string {
	switch p {
	case PageHome:
		return "Home"
	case PageData:
		return "Data"
	case PageGraphs:
		return "Graphs"
	case PagePredict:
		return "Predict"
	}
	return p.String()
}

// ParsePage accepts the lower-case page name. An empty string is Home.
func ParsePage(s string) (Page, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PageHome, true
	}
	for i, name := range pageNames {
		if name == s {
			return Page(i), true
		}
	}
	return PageHome, false
}

// State is everything a rendered view depends on.
type State struct {
	Page    Page
	Profile features.Profile
	Result  *ml.Prediction
	Err     string
}

// NewState starts on Home with the first option of every selector.
func NewState() State {
	return State{Page: PageHome, Profile: features.DefaultProfile()}
}

type ActionKind int

const (
	ActionNavigate ActionKind = iota
	ActionSelect
	ActionPredict
)

// Action is one user interaction.
type Action struct {
	Kind  ActionKind
	Page  Page
	Field features.Field
	Value string
}

// Navigate moves to page p.
func Navigate(p Page) Action { return Action{Kind: ActionNavigate, Page: p} }

// Select sets one profile field.
func Select(f features.Field, v string) Action {
	return Action{Kind: ActionSelect, Field: f, Value: v}
}

// Predict asks for one prediction of the current profile.
func Predict() Action { return Action{Kind: ActionPredict} }

// Effect is work the caller must perform after a transition.
type Effect int

const (
	EffectNone Effect = iota
	// EffectPredict runs exactly one encode-and-predict pass for State.Profile.
	EffectPredict
	// EffectReject means the action was refused and the state is unchanged.
	EffectReject
)

// Reduce applies a to s. It never performs I/O.
func Reduce(s State, a Action) (State, Effect) {
	switch a.Kind {
	case ActionNavigate:
		if !a.Page.Valid() {
			return s, EffectReject
		}
		if a.Page != s.Page {
			s.Result = nil
		}
		s.Page = a.Page
		s.Err = ""
		return s, EffectNone

	case ActionSelect:
		if !features.InDomain(a.Field, a.Value) {
			return s, EffectReject
		}
		if s.Profile.Value(a.Field) != a.Value {
			// A shown result no longer matches the selection.
			s.Result = nil
		}
		s.Profile = s.Profile.With(a.Field, a.Value)
		s.Err = ""
		return s, EffectNone

	case ActionPredict:
		s.Page = PagePredict
		s.Result = nil
		s.Err = ""
		return s, EffectPredict
	}
	return s, EffectReject
}

// WithResult folds the outcome of an EffectPredict back into the state.
func (s State) WithResult(p *ml.Prediction, err error) State {
	if err != nil {
		s.Result = nil
		s.Err = err.Error()
		return s
	}
	s.Result = p
	s.Err = ""
	return s
}
