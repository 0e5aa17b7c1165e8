package notify

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"
	"text/template"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Message is a rendered subject and body.
type Message struct {
	Subject string
	Body    string
}

const confirmationBody = `Hello {{.User.UserName}},

please confirm your account by opening the link below:

{{.Link}}

The link expires at {{.ExpiresAt}}.
`

const newPasswordBody = `Hello {{.User.UserName}},

your password has been reset. Your new password is:

{{.Password}}

Please change it after signing in.
`

const passwordChangedBody = `Hello {{.User.UserName}},

the password of your account has just been changed. If this was not you,
reset your password immediately.
`

// Templates renders account mail. Links point at baseURL.
type Templates struct {
	baseURL         string
	confirmation    *template.Template
	newPassword     *template.Template
	passwordChanged *template.Template
}

func NewTemplates(baseURL string) *Templates {
	return &Templates{
		baseURL:         strings.TrimRight(baseURL, "/"),
		confirmation:    template.Must(template.New("confirmation").Parse(confirmationBody)),
		newPassword:     template.Must(template.New("new-password").Parse(newPasswordBody)),
		passwordChanged: template.Must(template.New("password-changed").Parse(passwordChangedBody)),
	}
}

// ConfirmationLink is the URL a user opens to consume tok.
func (t *Templates) ConfirmationLink(tok *models.ConfirmationToken) string {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(tok.ID, 10))
	q.Set("token", tok.Token)
	return t.baseURL + "/api/v1/account/confirm?" + q.Encode()
}

func (t *Templates) Confirmation(subject string, user *models.User, tok *models.ConfirmationToken) (Message, error) {
	return render(t.confirmation, subject, map[string]any{
		"User":      user,
		"Link":      t.ConfirmationLink(tok),
		"ExpiresAt": tok.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"),
	})
}

func (t *Templates) NewPassword(user *models.User) (Message, error) {
	return render(t.newPassword, "Your new password", map[string]any{
		"User":     user,
		"Password": user.GeneratedPassword,
	})
}

func (t *Templates) PasswordChanged(user *models.User) (Message, error) {
	return render(t.passwordChanged, "Your password was changed", map[string]any{"User": user})
}

func render(tmpl *template.Template, subject string, data any) (Message, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, err
	}
	return Message{Subject: subject, Body: buf.String()}, nil
}
