// Package fragment loads shared HTML fragments (header, footer) into a host
// page document.
//
// A Loader fetches "{BasePath}{name}.html", rewrites the header's navigation
// on a detached node tree, and splices the result into the element with the
// requested id. InitPage wires a whole page: shared stylesheet, placeholder
// containers and concurrent header/footer loads.
//
//	doc, _ := dom.ParseString(page)
//	loader := fragment.NewLoader(doc, fragment.WithPageURL(pageURL))
//	results := loader.InitPage(ctx, fragment.PageConfig{
//		Options: fragment.Options{ActiveNav: "tools", ToolName: "Base64 Encoder"},
//	})
package fragment
