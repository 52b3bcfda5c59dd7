package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAuthorizeGuide prints the steps for approving flickrdl on flickr.com
func ShowAuthorizeGuide(w io.Writer, authURL string) {
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "FLICKR AUTHORISATION")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "flickrdl needs read access to your Flickr account.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 1: Open this URL in your browser and log in to Flickr:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "   %s\n", authURL)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 2: Click \"OK, I'll authorize it\"")
	fmt.Fprintln(w, "   - Only read permission is requested")
	fmt.Fprintln(w, "   - Flickr then shows a nine digit code such as 123-456-789")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 3: Enter the code below")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "The resulting token is stored in your system keychain when one is")
	fmt.Fprintln(w, "available and in an encrypted file otherwise. It can be revoked at")
	fmt.Fprintln(w, "any time from https://www.flickr.com/services/auth/list.gne")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)
}

// NormalizeVerifier strips whitespace from a pasted verifier code
func NormalizeVerifier(code string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(code))
}
