package tui

import (
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// Form fields, in tab order.
const (
	fieldTitle = iota
	fieldTagline
	fieldGenre
	fieldSeasons
	fieldEpisodes
	fieldCharacters
	fieldVisualStyle
	fieldScriptStyle
	fieldLore
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldTitle:       "Title",
	fieldTagline:     "Tagline",
	fieldGenre:       "Genre",
	fieldSeasons:     "Seasons",
	fieldEpisodes:    "Episodes/season",
	fieldCharacters:  "Characters",
	fieldVisualStyle: "Visual style",
	fieldScriptStyle: "Script style",
	fieldLore:        "Lore",
}

// createForm collects a CreateSeriesInput.
type createForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    string // parse errors the controller never sees
}

func newCreateForm() createForm {
	var f createForm
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 200
		f.inputs[i] = in
	}
	f.inputs[fieldLore].CharLimit = 4000
	f.inputs[fieldGenre].Placeholder = "drama, mystery"
	f.inputs[fieldSeasons].Placeholder = "1"
	f.inputs[fieldEpisodes].Placeholder = "6"
	f.inputs[fieldCharacters].Placeholder = "name:role:description; ..."
	f.inputs[fieldTitle].Focus()
	return f
}

func (f *createForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

func (f *createForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *createForm) value(field int) string {
	return strings.TrimSpace(f.inputs[field].Value())
}

// input builds the series input. Empty counts fall back to the placeholders; values that are not
// numbers are passed on as 0 so they fail validation with the controller's message.
func (f *createForm) input() (models.CreateSeriesInput, error) {
	characters, err := models.ParseCharacters(f.value(fieldCharacters))
	if err != nil {
		return models.CreateSeriesInput{}, err
	}
	return models.CreateSeriesInput{
		Title:             f.value(fieldTitle),
		Tagline:           f.value(fieldTagline),
		Genre:             models.SplitGenre(f.value(fieldGenre)),
		PlannedSeasons:    count(f.value(fieldSeasons), 1),
		EpisodesPerSeason: count(f.value(fieldEpisodes), 6),
		FullLore:          f.value(fieldLore),
		VisualStyle:       f.value(fieldVisualStyle),
		ScriptStyle:       f.value(fieldScriptStyle),
		MainCharacters:    characters,
	}, nil
}

func count(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func (f *createForm) view() string {
	var b strings.Builder
	for i := range f.inputs {
		label := labelStyle.Render(padRight(fieldLabels[i], 16))
		if i == f.focus {
			label = titleStyle.Render(padRight(fieldLabels[i], 16))
		}
		b.WriteString(label + " " + f.inputs[i].View() + "\n")
	}
	if f.err != "" {
		b.WriteString("\n" + errorStyle.Render(f.err) + "\n")
	}
	return b.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
