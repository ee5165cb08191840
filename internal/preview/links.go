// Package preview builds outbound paper links and extracts PDF text for the
// in-terminal preview.
package preview

import "strings"

// PDFLink rewrites an /abs/ URL to its /pdf/ form.
func PDFLink(absURL string) string {
	return swapSegment(absURL, "pdf")
}

// HTMLLink rewrites an /abs/ URL to its /html/ form.
func HTMLLink(absURL string) string {
	return swapSegment(absURL, "html")
}

func swapSegment(absURL, segment string) string {
	if !strings.Contains(absURL, "/abs/") {
		return absURL
	}
	return strings.Replace(absURL, "/abs/", "/"+segment+"/", 1)
}
