package lsp

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/walteh/emmetls/pkg/lsp/protocol"
	"github.com/walteh/emmetls/pkg/textdoc"
	"github.com/walteh/emmetls/pkg/tracker"
)

const diagnosticSource = "emmet"

// diagnosticPublisher reports tracker outcomes to the client as
// diagnostics over the tracked range.
type diagnosticPublisher struct {
	server *Server

	// published holds the documents that currently show a diagnostic
	published sync.Map
}

var _ tracker.Publisher = (*diagnosticPublisher)(nil)

func (p *diagnosticPublisher) Publish(ctx context.Context, id textdoc.ID, rng tracker.Range, outcome tracker.Outcome) {
	if !p.server.config().ShowDiagnostics {
		return
	}
	doc, ok := p.server.documents.Get(protocol.DocumentURI(id))
	if !ok {
		return
	}

	diag := protocol.Diagnostic{
		Range:  doc.Range(rng.Start, rng.End),
		Source: diagnosticSource,
	}
	switch o := outcome.(type) {
	case tracker.Valid:
		diag.Severity = protocol.SeverityHint
		diag.Message = "abbreviation: " + o.Raw
		if o.Preview != "" && !o.Simple {
			diag.Message += "\n" + o.Preview
		}
	case tracker.ParseError:
		diag.Severity = protocol.SeverityError
		diag.Message = fmt.Sprintf("invalid abbreviation: %s (offset %d)", o.Message, o.Offset)
	default:
		return
	}

	p.published.Store(id, struct{}{})
	p.send(ctx, doc.URI, []protocol.Diagnostic{diag})
}

func (p *diagnosticPublisher) Clear(ctx context.Context, id textdoc.ID) {
	if _, ok := p.published.LoadAndDelete(id); !ok {
		return
	}
	p.send(ctx, protocol.DocumentURI(id), []protocol.Diagnostic{})
}

func (p *diagnosticPublisher) send(ctx context.Context, uri protocol.DocumentURI, diags []protocol.Diagnostic) {
	client := p.server.client
	if client == nil {
		return
	}
	err := client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{URI: uri, Diagnostics: diags})
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("uri", string(uri)).Msg("publishing diagnostics")
	}
}
