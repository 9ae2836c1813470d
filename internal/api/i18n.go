package api

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported response languages; the first is the default.
var supportedLanguages = []language.Tag{language.Spanish, language.English}

var languageMatcher = language.NewMatcher(supportedLanguages)

// spanish maps English message keys to their Spanish text.
var spanish = map[string]string{
	msgUnauthenticated:  "necesitas iniciar sesión para continuar",
	msgRateLimited:      "demasiadas solicitudes, inténtalo de nuevo en unos instantes",
	msgProviderError:    "el proveedor de IA no pudo completar la solicitud, inténtalo de nuevo",
	msgUnreadableOutput: "no pudimos interpretar la respuesta de la IA, inténtalo de nuevo",
	msgInternal:         "error interno, inténtalo de nuevo más tarde",
	msgNoKeyConfigured:  "no hay una clave de API configurada para %s: añade una en Ajustes → Claves de API, o define providers.%s.api_key",
	msgMethodNotAllowed: "método no permitido",
	msgNotFound:         "recurso no encontrado",

	"request body is too large":      "el cuerpo de la solicitud es demasiado grande",
	"request body is required":       "el cuerpo de la solicitud es obligatorio",
	"request body is not valid JSON": "el cuerpo de la solicitud no es JSON válido",

	"%s is required":                    "%s es obligatorio",
	"%s must have at most %s items":     "%s admite como máximo %s elementos",
	"%s must be at most %s characters":  "%s admite como máximo %s caracteres",
	"%s must be at most %s":             "%s debe ser como máximo %s",
	"%s must have at least %s items":    "%s necesita al menos %s elementos",
	"%s must be at least %s characters": "%s necesita al menos %s caracteres",
	"%s must be at least %s":            "%s debe ser como mínimo %s",
	"%s must have exactly %s items":     "%s debe tener exactamente %s elementos",
	"%s must be exactly %s characters":  "%s debe tener exactamente %s caracteres",
	"%s must be one of: %s":             "%s debe ser uno de: %s",
	"%s must not contain duplicates":    "%s no puede contener duplicados",
	"%s failed %s validation":           "%s no superó la validación %s",

	"%s must be a funnel stage such as tofu_problem, mofu or bofu_decision": "%s debe ser una etapa del embudo, por ejemplo tofu_problem, mofu o bofu_decision",
}

var messages = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range spanish {
		_ = b.SetString(language.Spanish, key, text) //nolint:errcheck // static strings
	}
	return b
}

// localize translates msg when it is a catalog key. Other messages may
// carry user input and are printed verbatim.
func localize(p *message.Printer, msg string) string {
	if _, ok := spanish[msg]; ok {
		return p.Sprintf(msg)
	}
	return p.Sprintf("%s", msg)
}

// localeFor picks the response language from Accept-Language.
func localeFor(r *http.Request) language.Tag {
	tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")) //nolint:errcheck // malformed headers fall back to the default
	_, idx, _ := languageMatcher.Match(tags...)
	return supportedLanguages[idx]
}

// printerFor returns a message printer for the request's language.
func printerFor(r *http.Request) *message.Printer {
	return message.NewPrinter(localeFor(r), message.Catalog(messages))
}
