// Package ui implements the interactive terminal client using bubbletea's Elm architecture.
//
// Pages mirror [state.Page]:
//  1. Home : searchable, genre-filtered and paginated movie list
//  2. Discover : top movies per genre
//  3. Movie : details and similar movies for the movie that was opened
//  4. Profile : personalized recommendations with the recommender's explanation
//
// The [Model] implements the standard Init/Update/View pattern. Network calls run as [tea.Cmd]s and report back
// with messages tagged by the navigation token they were started under; Update drops any that arrive after the
// user has navigated elsewhere. Ratings go through [state.App] so they show immediately and revert on failure.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, q) with contextual help from charmbracelet/bubbles/help.
package ui
