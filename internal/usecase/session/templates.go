package session

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
)

const (
	welcomeSubject  = "Bienvenido a MovApp"
	recoverySubject = "Recuperar contraseña"
)

var (
	welcomeTemplate = template.Must(template.New("welcome").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto;">
  <h2>¡Hola {{.Name}}!</h2>
  <p>Tu cuenta en MovApp fue creada correctamente.</p>
  <p>Ya puedes iniciar sesión desde la aplicación.</p>
</div>`))

	recoveryTemplate = template.Must(template.New("recovery").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto;">
  <h2>Recuperación de contraseña</h2>
  <p>Hola {{.Name}}, usa este código para restablecer tu contraseña:</p>
  <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Code}}</p>
  <p>El código expira en {{.Minutes}} minutos.</p>
  <p><a href="{{.Link}}">Abrir en MovApp</a></p>
</div>`))
)

func renderWelcome(name string) (string, error) {
	return render(welcomeTemplate, map[string]interface{}{"Name": name})
}

func renderRecovery(name, code string, minutes int, link string) (string, error) {
	return render(recoveryTemplate, map[string]interface{}{
		"Name":    name,
		"Code":    code,
		"Minutes": minutes,
		"Link":    template.URL(link),
	})
}

// recoveryLink builds the app deep link, e.g. movapp://reset-pass?email=...&code=...
func recoveryLink(base, email, code string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("code", code)
	return fmt.Sprintf("%s?%s", base, q.Encode())
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
