// Package services – slash directives
//
// Users steer the assistant with a small closed set of slash commands. The
// parser is exhaustive: anything starting with '/' that is not in the set is
// an unknown directive and must be answered locally, without a model call.
package services

import "strings"

// Directive is the parsed form of a slash command. Exactly one of the
// variants applies; Unknown carries the unrecognized verb.
type Directive struct {
	Kind DirectiveKind
	Arg  string // verdict for Minuta, topic for Buscar, verb for Unknown
}

// DirectiveKind enumerates the closed command set.
type DirectiveKind int

const (
	// DirectiveNone means the message is plain conversation, not a command.
	DirectiveNone DirectiveKind = iota
	// DirectiveMinuta composes a final draft for the given verdict.
	DirectiveMinuta
	// DirectiveBuscar searches the internal knowledge base.
	DirectiveBuscar
	// DirectiveTese summarizes the session as a reusable thesis.
	DirectiveTese
	// DirectiveAjuda lists the available commands.
	DirectiveAjuda
	// DirectiveUnknown is any other /command.
	DirectiveUnknown
)

// ParseDirective inspects a user message for a leading slash command.
func ParseDirective(message string) Directive {
	m := strings.TrimSpace(message)
	if !strings.HasPrefix(m, "/") {
		return Directive{Kind: DirectiveNone}
	}
	verb, rest, _ := strings.Cut(m[1:], " ")
	arg := strings.TrimSpace(rest)
	switch strings.ToLower(verb) {
	case "minuta":
		return Directive{Kind: DirectiveMinuta, Arg: arg}
	case "buscar":
		return Directive{Kind: DirectiveBuscar, Arg: arg}
	case "tese":
		return Directive{Kind: DirectiveTese}
	case "ajuda":
		return Directive{Kind: DirectiveAjuda}
	}
	return Directive{Kind: DirectiveUnknown, Arg: verb}
}

// HelpText is the local reply for /ajuda.
const HelpText = `Comandos disponíveis:
/minuta <veredito> — compor a minuta final para o veredito indicado
/buscar <tema> — pesquisar a base de conhecimento interna
/tese — resumir a sessão como uma tese reutilizável
/ajuda — mostrar esta lista`

// UnknownDirectiveReply is the local reply for an unrecognized command.
func UnknownDirectiveReply(verb string) string {
	return "Comando /" + verb + " não reconhecido. Use /ajuda para ver os comandos disponíveis."
}
