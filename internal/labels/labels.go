// Package labels renders semantic status tags into display strings.
package labels

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the catalog languages; the first entry is the fallback.
var Supported = []language.Tag{language.BrazilianPortuguese, language.English}

var (
	matcher = language.NewMatcher(Supported)
	cat     = newCatalog()
)

var entries = map[string][2]string{
	// amendment checklist status
	"DRAFTING":                    {"Em elaboração", "Drafting"},
	"LEGAL_REVIEW":                {"Em análise na PGM", "In legal review"},
	"LEGAL_REJECTED":              {"Reprovado pela PGM", "Rejected by legal"},
	"ADJUSTMENTS_NEEDED":          {"Aprovado com ressalvas", "Adjustments needed"},
	"READY_FOR_SIGNATURE":         {"Pronto para assinatura", "Ready for signature"},
	"SENT_FOR_SUPPLIER_SIGNATURE": {"Enviado para assinatura do fornecedor", "Sent for supplier signature"},
	"EXECUTIVE_SIGNATURE":         {"Assinatura do prefeito", "Executive signature"},
	"PUBLICATION":                 {"Publicação", "Publication"},
	"CONCLUDED":                   {"Concluído", "Concluded"},
	// contract status
	"active":    {"Vigente", "Active"},
	"warning":   {"Vencendo", "Expiring soon"},
	"expired":   {"Vencido", "Expired"},
	"executed":  {"Executado", "Executed"},
	"rescinded": {"Rescindido", "Rescinded"},
	// active amendment badge
	"approved":                  {"Aprovado", "Approved"},
	"rejected":                  {"Reprovado", "Rejected"},
	"approved_with_reservation": {"Aprovado com ressalvas", "Approved with reservation"},
	"in_legal_review":           {"Em análise jurídica", "In legal review"},
	"in_drafting":               {"Em elaboração", "In drafting"},
}

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(Supported[0]))
	for key, text := range entries {
		for i, tag := range Supported {
			_ = b.SetString(tag, key, text[i])
		}
	}
	return b
}

// Match picks the supported language for an Accept-Language header value.
// An empty or unparseable header yields fallback.
func Match(acceptLanguage string, fallback language.Tag) language.Tag {
	header := strings.TrimSpace(acceptLanguage)
	if header == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return Supported[idx]
}

// Parse resolves a configured locale such as "pt-BR" or "en".
func Parse(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return Supported[0]
	}
	_, idx, _ := matcher.Match(tag)
	return Supported[idx]
}

// Printer formats labels for one language.
type Printer struct {
	p *message.Printer
}

// NewPrinter returns a printer bound to tag.
func NewPrinter(tag language.Tag) Printer {
	return Printer{p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Label renders key, or returns key unchanged when the catalog has no entry.
func (p Printer) Label(key string) string {
	if key == "" {
		return ""
	}
	if _, ok := entries[key]; !ok {
		return key
	}
	return p.p.Sprintf(key)
}
