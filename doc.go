// Package tutorchat renders model-generated feedback into printable PDF
// documents using headless Chrome.
//
// # Quick Start
//
// Create a service, export feedback, and close when done:
//
//	svc := tutorchat.New()
//	defer svc.Close()
//
//	pdf, err := svc.Export(ctx, tutorchat.Input{
//	    Feedback: "## Result\n\nGreat job!",
//	    Score:    "95",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(tutorchat.ExportFilename(time.Now()), pdf, 0644)
//
// # Rendering Pipeline
//
// Export follows these stages:
//
//  1. Feedback markup to semantic tree (Goldmark + x/net/html, closed tag
//     vocabulary)
//  2. Font resolution (Liberation Sans scan with Latin-only fallback)
//  3. Block and inline rendering into ordered layout units
//  4. Document assembly (title, metadata, feedback section)
//  5. HTML generation and PDF printing via headless Chrome (go-rod)
//
// No stage failure is fatal to the render: missing fonts degrade to a
// built-in family and unparseable markup degrades to an escaped plain-text
// paragraph. The only rejected input is empty feedback.
//
// For concurrent exports use ExportPool, which maintains one browser
// instance per pooled service.
package tutorchat
