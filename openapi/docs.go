package openapi

import (
	"encoding/json"

	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// docsPage renders the interactive documentation page for ui, loading the
// document from specURL.
func docsPage(ui DocsUI, title, specURL string) g.Node {
	var head, body []g.Node

	switch ui {
	case DocsRedoc:
		body = []g.Node{
			g.El("redoc", g.Attr("spec-url", specURL)),
			html.Script(html.Src("https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js")),
		}

	case DocsRapiDoc:
		head = []g.Node{
			html.Script(html.Type("module"), html.Src("https://unpkg.com/rapidoc/dist/rapidoc-min.js")),
		}
		body = []g.Node{
			g.El("rapi-doc", g.Attr("spec-url", specURL)),
		}

	case DocsElements:
		head = []g.Node{
			html.Script(html.Src("https://unpkg.com/@stoplight/elements/web-components.min.js")),
			html.Link(html.Rel("stylesheet"), html.Href("https://unpkg.com/@stoplight/elements/styles.min.css")),
		}
		body = []g.Node{
			g.El("elements-api", g.Attr("apiDescriptionUrl", specURL), g.Attr("router", "hash")),
		}

	case DocsRapiPDF:
		head = []g.Node{
			html.Script(html.Src("https://unpkg.com/rapipdf/dist/rapipdf-min.js")),
		}
		body = []g.Node{
			g.El("rapi-pdf", g.Attr("spec-url", specURL)),
		}

	default:
		head = []g.Node{
			html.Link(html.Rel("stylesheet"), html.Href("https://unpkg.com/swagger-ui-dist/swagger-ui.css")),
		}
		body = []g.Node{
			html.Div(html.ID("swagger-ui")),
			html.Script(html.Src("https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js")),
			html.Script(g.Raw("SwaggerUIBundle({url: " + jsString(specURL) + `, dom_id: "#swagger-ui"});`)),
		}
	}

	return html.Doctype(
		html.HTML(
			html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("UTF-8")),
				html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1.0")),
				html.TitleEl(g.Text(title)),
				g.Group(head),
			),
			html.Body(body...),
		),
	)
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
