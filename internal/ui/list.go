package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/filmrec/internal/formatter"
	"github.com/desertthunder/filmrec/internal/models"
)

var (
	_ list.Item = movieItem{}
	_ list.Item = genreItem{}
)

// movieItem wraps [models.Movie] to implement [list.Item]. rating is the user's own rating, 0 when unrated.
type movieItem struct {
	movie  models.Movie
	rating int
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string {
	if i.rating > 0 {
		return fmt.Sprintf("%s %s", i.movie.Title, styles.star.Render(formatter.Stars(i.rating)))
	}
	return i.movie.Title
}
func (i movieItem) Description() string {
	parts := []string{}
	if len(i.movie.Genres) > 0 {
		parts = append(parts, strings.Join(i.movie.Genres, ", "))
	}
	if i.movie.ModelUsed != "" {
		parts = append(parts, i.movie.ModelUsed)
	}
	if i.movie.Score > 0 {
		parts = append(parts, fmt.Sprintf("score %.2f", i.movie.Score))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("#%s", i.movie.ID)
	}
	return strings.Join(parts, " • ")
}

// genreItem wraps a genre name to implement [list.Item].
type genreItem struct {
	name string
}

func (i genreItem) FilterValue() string { return i.name }
func (i genreItem) Title() string       { return i.name }
func (i genreItem) Description() string { return "top 10" }

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 80, 20)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	return l
}

func genreItems() []list.Item {
	items := make([]list.Item, len(models.Genres))
	for i, g := range models.Genres {
		items[i] = genreItem{name: g}
	}
	return items
}

// selectedMovie returns the movie under the cursor of l.
func selectedMovie(l list.Model) (models.Movie, bool) {
	if it, ok := l.SelectedItem().(movieItem); ok {
		return it.movie, true
	}
	return models.Movie{}, false
}
