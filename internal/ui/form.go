package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/shared"
	"github.com/desertthunder/filmrec/internal/state"
)

var errCredentialsRequired = errors.New("username and password are required")

// authForm is the login/sign up overlay.
type authForm struct {
	username textinput.Model
	password textinput.Model
	signup   bool
	busy     bool
	err      error
}

func newAuthForm() *authForm {
	u := textinput.New()
	u.Placeholder = "username"
	u.Prompt = "Username: "
	u.CharLimit = 150

	p := textinput.New()
	p.Placeholder = "password"
	p.Prompt = "Password: "
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'

	return &authForm{username: u, password: p}
}

func (f *authForm) credentials() models.Credentials {
	return models.Credentials{Username: f.username.Value(), Password: f.password.Value()}.Trimmed()
}

func (f *authForm) switchFocus() tea.Cmd {
	if f.username.Focused() {
		f.username.Blur()
		return f.password.Focus()
	}
	f.password.Blur()
	return f.username.Focus()
}

func (f *authForm) view() string {
	title := "Log in"
	toggle := "ctrl+t: create an account instead"
	if f.signup {
		title = "Sign up"
		toggle = "ctrl+t: log in to an existing account"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n" + f.username.View() + "\n" + f.password.View() + "\n\n")
	if f.busy {
		b.WriteString(renderLoading("account") + "\n")
	}
	if f.err != nil {
		b.WriteString(styles.err.Render(f.err.Error()) + "\n")
	}
	b.WriteString(styles.help.Render("enter: submit • tab: next field • " + toggle + " • esc: cancel"))
	return b.String()
}

func (m *Model) openForm() tea.Cmd {
	m.form = newAuthForm()
	return m.form.username.Focus()
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.back):
		m.form = nil
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		f.signup = !f.signup
		f.err = nil
		return m, nil
	case msg.Type == tea.KeyTab, msg.Type == tea.KeyShiftTab, msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		return m, f.switchFocus()
	case msg.Type == tea.KeyEnter:
		return m, m.submitForm()
	}

	var cmd tea.Cmd
	if f.username.Focused() {
		f.username, cmd = f.username.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return m, cmd
}

// submitForm checks the fields locally and sends them. Empty fields never reach the API.
func (m *Model) submitForm() tea.Cmd {
	f := m.form
	creds := f.credentials()
	if creds.Username == "" || creds.Password == "" {
		f.err = errCredentialsRequired
		return nil
	}

	f.busy = true
	f.err = nil
	signup := f.signup
	return func() tea.Msg {
		var (
			session models.Session
			err     error
		)
		if signup {
			session, err = m.app.Signup(m.ctx, creds)
		} else {
			session, err = m.app.Login(m.ctx, creds)
		}
		return authDoneMsg{session: session, signup: signup, err: err}
	}
}

func (m *Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if m.form != nil {
			m.form.busy = false
			m.form.err = authErrorText(msg.err)
		}
		return m, nil
	}

	m.form = nil
	m.setNotice("Welcome, "+msg.session.Username, true)
	m.refreshRatings()

	// Signup has already moved the navigator to the profile page.
	if msg.signup || m.page == state.PageProfile {
		return m, m.enterPage()
	}
	return m, nil
}

func authErrorText(err error) error {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		return shared.ErrInvalidCredentials
	case errors.Is(err, shared.ErrServiceUnavailable):
		return errors.New("the recommendation service is unavailable, try again later")
	}
	return err
}
