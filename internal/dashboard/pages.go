package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"student-predictor/internal/dataset"
	"student-predictor/internal/features"

	"github.com/rs/zerolog/log"
)

// formKeys maps form and query parameter names onto profile fields.
var formKeys = []struct {
	key   string
	field features.Field
	label string
}{
	{"gender", features.Gender, "Gender"},
	{"race_ethnicity", features.RaceEthnicity, "Race/Ethnicity"},
	{"parental_education", features.ParentalEducation, "Parental Level of Education"},
	{"lunch", features.Lunch, "Lunch Type"},
	{"test_preparation", features.TestPreparation, "Test Preparation Course"},
}

type option struct {
	Value    string
	Selected bool
}

type selectView struct {
	Key     string
	Label   string
	Options []option
}

type barView struct {
	Label string
	Count int
	Width int
}

type chartView struct {
	Title string
	Bars  []barView
}

type pageView struct {
	State        State
	Pages        []Page
	Selects      []selectView
	Backend      string
	ModelVersion string
	HasData      bool
	Columns      []string
	Preview      []dataset.Row
	Rows, Cols   int
	Summary      []dataset.Summary
	Histograms   []chartView
	Categories   []chartView
}

// applySelections reduces every profile field present in values.
func applySelections(st State, get func(string) string) (State, error) {
	for _, fk := range formKeys {
		v := get(fk.key)
		if v == "" {
			continue
		}
		var eff Effect
		st, eff = Reduce(st, Select(fk.field, v))
		if eff == EffectReject {
			return st, fmt.Errorf("%w: %s %q", features.ErrInvalidProfile, fk.label, v)
		}
	}
	return st, nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	st := NewState()
	q := r.URL.Query()

	page, ok := ParsePage(q.Get("page"))
	if !ok {
		st.Err = fmt.Sprintf("unknown page %q", q.Get("page"))
		s.render(w, http.StatusNotFound, st)
		return
	}
	st, _ = Reduce(st, Navigate(page))

	st, err := applySelections(st, q.Get)
	if err != nil {
		st.Err = err.Error()
		s.render(w, http.StatusBadRequest, st)
		return
	}
	s.render(w, http.StatusOK, st)
}

func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		st := NewState()
		st.Page = PagePredict
		st.Err = err.Error()
		s.render(w, http.StatusBadRequest, st)
		return
	}

	st, _ := Reduce(NewState(), Navigate(PagePredict))
	st, err := applySelections(st, r.PostForm.Get)
	if err != nil {
		st.Err = err.Error()
		s.render(w, http.StatusBadRequest, st)
		return
	}

	status := http.StatusOK
	st, eff := Reduce(st, Predict())
	if eff == EffectPredict {
		pred, err := s.svc.Predict(r.Context(), st.Profile)
		if err != nil {
			status = predictStatus(err)
			st = st.WithResult(nil, err)
		} else {
			st = st.WithResult(&pred, nil)
		}
	}
	s.render(w, status, st)
}

func (s *Server) render(w http.ResponseWriter, status int, st State) {
	view := s.buildView(st)

	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, "layout", view); err != nil {
		log.Error().Err(err).Str("page", st.Page.String()).Msg("Failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) buildView(st State) pageView {
	v := pageView{
		State:        st,
		Pages:        Pages(),
		Backend:      s.svc.Backend(),
		ModelVersion: s.svc.Metadata().Version,
		HasData:      s.data.Len() > 0,
	}

	switch st.Page {
	case PagePredict:
		for _, fk := range formKeys {
			sel := selectView{Key: fk.key, Label: fk.label}
			current := st.Profile.Value(fk.field)
			for _, opt := range features.Domain(fk.field) {
				sel.Options = append(sel.Options, option{Value: opt, Selected: opt == current})
			}
			v.Selects = append(v.Selects, sel)
		}

	case PageData:
		v.Columns = s.data.Columns()
		v.Preview = s.data.Preview(s.cfg.PreviewRows)
		v.Rows, v.Cols = s.data.Shape()
		v.Summary = s.data.Describe()

	case PageGraphs:
		for _, col := range dataset.NumericColumns {
			bins, err := s.data.Histogram(col, s.cfg.HistogramBins)
			if err != nil {
				continue
			}
			chart := chartView{Title: col}
			counts := make([]int, len(bins))
			for i, b := range bins {
				counts[i] = b.Count
				chart.Bars = append(chart.Bars, barView{Label: fmt.Sprintf("%.0f-%.0f", b.Lower, b.Upper), Count: b.Count})
			}
			scaleBars(chart.Bars, counts)
			v.Histograms = append(v.Histograms, chart)
		}
		cats := s.data.CategoryCounts()
		for _, col := range dataset.CategoricalColumns {
			chart := chartView{Title: col}
			counts := make([]int, len(cats[col]))
			for i, c := range cats[col] {
				counts[i] = c.Count
				chart.Bars = append(chart.Bars, barView{Label: c.Value, Count: c.Count})
			}
			scaleBars(chart.Bars, counts)
			v.Categories = append(v.Categories, chart)
		}
	}
	return v
}

// scaleBars sets widths as a percentage of the largest count.
func scaleBars(bars []barView, counts []int) {
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	if max == 0 {
		return
	}
	for i := range bars {
		bars[i].Width = counts[i] * 100 / max
	}
}

func parsePages() *template.Template {
	funcs := template.FuncMap{
		"f1": func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"f2": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}
	return template.Must(template.New("layout").Funcs(funcs).Parse(layoutTemplate))
}
