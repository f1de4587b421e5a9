// Package view models the navigation state of the series workflow.
package view

import "fmt"

// Kind tags which view is active.
type Kind int

const (
	KindList Kind = iota
	KindCreate
	KindDetail
	KindProduction
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindCreate:
		return "create"
	case KindDetail:
		return "detail"
	case KindProduction:
		return "production"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// View is the tagged variant list | create | detail{seriesID} | production{episodeID}.
// Fields are unexported so a view can only be built through the constructors; the zero value
// is the list view. Views are comparable.
type View struct {
	kind Kind
	id   string
}

// List returns the series list view.
func List() View { return View{kind: KindList} }

// Create returns the series creation view.
func Create() View { return View{kind: KindCreate} }

// Detail returns the detail view of a series.
func Detail(seriesID string) View { return View{kind: KindDetail, id: seriesID} }

// Production returns the production view of an episode.
func Production(episodeID string) View { return View{kind: KindProduction, id: episodeID} }

// Kind returns the view tag.
func (v View) Kind() Kind { return v.kind }

// SeriesID returns the held series id for a detail view.
func (v View) SeriesID() (string, bool) {
	if v.kind != KindDetail {
		return "", false
	}
	return v.id, true
}

// EpisodeID returns the held episode id for a production view.
func (v View) EpisodeID() (string, bool) {
	if v.kind != KindProduction {
		return "", false
	}
	return v.id, true
}

func (v View) String() string {
	switch v.kind {
	case KindDetail, KindProduction:
		return fmt.Sprintf("%s(%s)", v.kind, v.id)
	default:
		return v.kind.String()
	}
}
